package domain

import "fmt"

// ProvisionKey addresses one row of the provisioning table.
type ProvisionKey struct {
	Platform      Platform
	Department    Department
	SubDepartment SubDepartment
}

// RolePackage is the fixed role set attached to an accepted member for one
// (platform, department, sub-department) combination. Role IDs are opaque
// identifiers in the target community.
type RolePackage struct {
	RoleIDs []string
}

// ProvisioningTable maps provision keys to role packages. It is built once
// from configuration and read-only afterwards.
type ProvisioningTable map[ProvisionKey]RolePackage

// Lookup resolves the role package for a member. Departments without
// sub-departments are stored under SubDepartmentNone, so the sub-department
// is normalised before lookup.
func (t ProvisioningTable) Lookup(p Platform, d Department, s SubDepartment) (RolePackage, bool) {
	if !d.HasSubDepartments() {
		s = SubDepartmentNone
	}
	pkg, ok := t[ProvisionKey{Platform: p, Department: d, SubDepartment: s}]
	return pkg, ok
}

// callsignPrefixes give each department (and PSO sub-department) its fixed
// callsign shape. The numeric suffix is randomized at provisioning time.
var callsignPrefixes = map[ProvisionKey]string{
	{Department: DepartmentPSO, SubDepartment: SubDepartmentSASP}:  "SP",
	{Department: DepartmentPSO, SubDepartment: SubDepartmentBCSO}:  "SD",
	{Department: DepartmentCO, SubDepartment: SubDepartmentNone}:   "CIV",
	{Department: DepartmentSAFR, SubDepartment: SubDepartmentNone}: "FR",
}

// Callsign formats the display label for a newly provisioned member,
// e.g. "SD-417". The shape is deterministic per department and
// sub-department; only the numeric suffix varies.
func Callsign(d Department, s SubDepartment, n int) string {
	if !d.HasSubDepartments() {
		s = SubDepartmentNone
	}
	prefix, ok := callsignPrefixes[ProvisionKey{Department: d, SubDepartment: s}]
	if !ok {
		prefix = string(d)
	}
	return fmt.Sprintf("%s-%03d", prefix, n)
}
