package domain

// Department is the fixed category an applicant applies for.
type Department string

const (
	// DepartmentPSO is the Public Safety Office (law enforcement).
	DepartmentPSO Department = "PSO"
	// DepartmentCO is Civilian Operations.
	DepartmentCO Department = "CO"
	// DepartmentSAFR is San Andreas Fire & Rescue.
	DepartmentSAFR Department = "SAFR"
)

// Departments lists every valid department in panel order.
func Departments() []Department {
	return []Department{DepartmentPSO, DepartmentCO, DepartmentSAFR}
}

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	switch d {
	case DepartmentPSO, DepartmentCO, DepartmentSAFR:
		return true
	}
	return false
}

// HasSubDepartments reports whether applicants to d must pick a
// sub-department before the questionnaire starts.
func (d Department) HasSubDepartments() bool {
	return d == DepartmentPSO
}

// SubDepartment is the optional sub-category under a department.
// Only PSO has meaningful sub-departments.
type SubDepartment string

const (
	SubDepartmentSASP SubDepartment = "SASP"
	SubDepartmentBCSO SubDepartment = "BCSO"
	SubDepartmentNone SubDepartment = "N/A"
)

// SubDepartmentsOf returns the selectable sub-departments for a department,
// or nil when the department has none.
func SubDepartmentsOf(d Department) []SubDepartment {
	if d == DepartmentPSO {
		return []SubDepartment{SubDepartmentSASP, SubDepartmentBCSO}
	}
	return nil
}

// Valid reports whether s is a legal sub-department value for department d.
func (s SubDepartment) Valid(d Department) bool {
	if !d.HasSubDepartments() {
		return s == SubDepartmentNone
	}
	return s == SubDepartmentSASP || s == SubDepartmentBCSO
}

// Platform identifies the target community an applicant wants access to.
type Platform string

const (
	PlatformPS4 Platform = "PS4"
	PlatformPS5 Platform = "PS5"
)

// Platforms lists every active platform.
func Platforms() []Platform {
	return []Platform{PlatformPS4, PlatformPS5}
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformPS4 || p == PlatformPS5
}
