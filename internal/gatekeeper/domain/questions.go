package domain

// Question is a single questionnaire step. Most questions accept free
// text; a question with a non-empty Choices list only accepts one of the
// listed options.
type Question struct {
	ID      string
	Prompt  string
	Choices []string
}

// ClosedChoice reports whether the question restricts answers to a fixed
// option list.
func (q Question) ClosedChoice() bool {
	return len(q.Choices) > 0
}

// Accepts reports whether text is an acceptable answer to the question.
// Free-text questions accept anything non-empty; closed-choice questions
// require one of the listed options (exact match).
func (q Question) Accepts(text string) bool {
	if text == "" {
		return false
	}
	if !q.ClosedChoice() {
		return true
	}
	for _, c := range q.Choices {
		if c == text {
			return true
		}
	}
	return false
}

// ReferralSources are the fixed options for the shared "how did you find
// us" question.
var ReferralSources = []string{"Instagram", "Tiktok", "Partnership", "Friend", "Other"}

// commonQuestions are shared by every department as Q1-Q4.
var commonQuestions = []Question{
	{ID: "Q1", Prompt: "What's your Discord username?"},
	{ID: "Q2", Prompt: "How old are you IRL?"},
	{ID: "Q3", Prompt: "What's your Date of Birth IRL?"},
	{ID: "Q4", Prompt: "How did you find us? (Instagram / Tiktok / Partnership / Friend / Other)", Choices: ReferralSources},
}

var psoQuestions = append(commonQuestions[:4:4], []Question{
	{ID: "Q5", Prompt: "What attracts you to Public Safety work within LSRP?"},
	{ID: "Q6", Prompt: "Do you have prior law enforcement RP experience? If yes, where and what rank?"},
	{ID: "Q7", Prompt: "Explain the difference between BCSO and SASP jurisdictions."},
	{ID: "Q8", Prompt: "Scenario: First on a shots-fired scene with civilians nearby. What's your immediate plan?"},
	{ID: "Q9", Prompt: "Rate your radio discipline 1-10 and explain."},
	{ID: "Q10", Prompt: "Confirm you'll follow all PSO SOPs and sub-department rules. (Yes/No + any comments)"},
	{ID: "Q11", Prompt: "List three traffic stop safety steps you always follow."},
	{ID: "Q12", Prompt: "When should lethal force be considered appropriate?"},
	{ID: "Q13", Prompt: "How do you de-escalate a hostile subject during a stop?"},
	{ID: "Q14", Prompt: "Describe how you'd coordinate with another unit during a pursuit."},
	{ID: "Q15", Prompt: "How do you handle chain of command disagreements in-session?"},
	{ID: "Q16", Prompt: "What's your approach to scene containment and perimeter setup?"},
	{ID: "Q17", Prompt: "Name two examples of powergaming to avoid as LEO."},
	{ID: "Q18", Prompt: "How do you balance realistic RP with server pacing?"},
	{ID: "Q19", Prompt: "A fellow officer violates SOP mid-scene. What do you do?"},
	{ID: "Q20", Prompt: "What's your long-term goal inside PSO (training, supervision, specialty units)?"},
}...)

var coQuestions = append(commonQuestions[:4:4], []Question{
	{ID: "Q5", Prompt: "What kinds of civilian stories do you enjoy (legal/illegal/entrepreneur)?"},
	{ID: "Q6", Prompt: "How do you avoid low-effort/chaotic RP while staying engaging?"},
	{ID: "Q7", Prompt: "Describe a creative civilian scene you've run or want to run here."},
	{ID: "Q8", Prompt: "Are you comfortable with passive RP (dialogue/world-building)? Why?"},
	{ID: "Q9", Prompt: "What conflicts should civilians avoid initiating and why?"},
	{ID: "Q10", Prompt: "Confirm you'll follow all CO guidelines. (Yes/No + any comments)"},
	{ID: "Q11", Prompt: "What's your approach to building a civilian character background?"},
	{ID: "Q12", Prompt: "How do you RP consequences after illegal activities?"},
	{ID: "Q13", Prompt: "Give an example of non-violent conflict you'd like to portray."},
	{ID: "Q14", Prompt: "How do you keep civilian RP fun for others on slow nights?"},
	{ID: "Q15", Prompt: "Explain metagaming and how you avoid it as a civilian."},
	{ID: "Q16", Prompt: "How do you signal intent OOC when coordination is needed (without breaking immersion)?"},
	{ID: "Q17", Prompt: "What's a good reason to call for emergency services from a civ POV?"},
	{ID: "Q18", Prompt: "How will you use businesses or public locations to spark roleplay?"},
	{ID: "Q19", Prompt: "What would make you step back and let another player lead a scene?"},
	{ID: "Q20", Prompt: "Your long-term CO goals (gang mgmt, business owner, advisor, etc.)?"},
}...)

var safrQuestions = append(commonQuestions[:4:4], []Question{
	{ID: "Q5", Prompt: "Why do you want to join San Andreas Fire & Rescue?"},
	{ID: "Q6", Prompt: "Any prior Fire/EMS RP? Certifications or knowledge to share?"},
	{ID: "Q7", Prompt: "Scenario: Multi-vehicle collision with fire & multiple injured. First 3 priorities?"},
	{ID: "Q8", Prompt: "Are you comfortable with medical RP steps (triage, BLS)?"},
	{ID: "Q9", Prompt: "What does teamwork mean to you in emergency services?"},
	{ID: "Q10", Prompt: "Confirm you'll follow all SAFR protocols. (Yes/No + any comments)"},
	{ID: "Q11", Prompt: "How do you assess scene safety before entering a structure?"},
	{ID: "Q12", Prompt: "When would you call for additional alarms or mutual aid?"},
	{ID: "Q13", Prompt: "Explain basic triage tags and how you'd apply them."},
	{ID: "Q14", Prompt: "Describe the handoff to EMS or hospital in RP."},
	{ID: "Q15", Prompt: "How do you communicate with LEO at a chaotic fire scene?"},
	{ID: "Q16", Prompt: "What tools/equipment would you mention during a structure fire RP?"},
	{ID: "Q17", Prompt: "How do you portray fatigue/limitations realistically in long scenes?"},
	{ID: "Q18", Prompt: "What's your approach to patient consent & refusal scenarios?"},
	{ID: "Q19", Prompt: "How would you handle conflicting commands from multiple supervisors?"},
	{ID: "Q20", Prompt: "Your long-term SAFR goals (EMS specialization, officer track, training)?"},
}...)

var departmentQuestions = map[Department][]Question{
	DepartmentPSO:  psoQuestions,
	DepartmentCO:   coQuestions,
	DepartmentSAFR: safrQuestions,
}

// QuestionsFor returns the ordered questionnaire for a department.
// The returned slice must not be mutated.
func QuestionsFor(d Department) []Question {
	return departmentQuestions[d]
}
