package feature

// Student schema: academic outcome classifier, 36 features.

const (
	sectionStudentKey      = "Key Academic Indicators"
	sectionStudentPersonal = "Personal Information"
	sectionStudentAdmit    = "Admission Information"
	sectionStudentParents  = "Parent Information"
	sectionStudentMacro    = "Macroeconomic Context"
	sectionStudentUnits    = "Additional Curricular Details"
)

// Student category vocabularies, in form option order.
var (
	// MaritalStatus codes follow the dataset's marital status coding.
	MaritalStatus = NewVocabulary(
		Entry{"Single", 1}, Entry{"Married", 2}, Entry{"Widower", 3},
		Entry{"Divorced", 4}, Entry{"Legally Separated", 5}, Entry{"Other", 6},
	)
	// Gender is 1 for male.
	Gender     = NewVocabulary(Entry{"Female", 0}, Entry{"Male", 1})
	// Attendance is 1 for daytime classes.
	Attendance = NewVocabulary(Entry{"Daytime", 1}, Entry{"Evening", 0})
	// Occupation is the mother's occupation group.
	Occupation = NewVocabulary(
		Entry{"Unemployed", 0}, Entry{"Student", 1}, Entry{"Professional", 2},
		Entry{"Administrative staff", 3}, Entry{"Service worker", 4},
		Entry{"Manual laborer", 5}, Entry{"Other", 6},
	)
)

// StudentOutcomes are the classifier's classes in index order.
var StudentOutcomes = []string{"Dropout", "Enrolled", "Graduate"}

// AttendanceFeature keeps the trailing tab of the training column name.
const AttendanceFeature = "Daytime/evening attendance\t"

// Student is the academic success schema in training column order.
var Student = mustSchema("student",
	category("Marital status", "Marital Status", sectionStudentPersonal, MaritalStatus, 1),
	integer("Application mode", "Application Mode (Code)", sectionStudentAdmit, 1, 50, 17),
	integer("Application order", "Application Priority (1=Highest)", sectionStudentAdmit, 1, 9, 1),
	integer("Course", "Course Code", sectionStudentAdmit, 1000, 9999, 9238),
	category(AttendanceFeature, "Attendance Type", sectionStudentAdmit, Attendance, 1),
	integer("Previous qualification", "Previous Qualification (Code)", sectionStudentAdmit, 1, 40, 1),
	number("Previous qualification (grade)", "Previous Qualification Grade (0-200)", sectionStudentAdmit, 0, 200, 0.1, 133.1),
	integer("Nacionality", "Nationality Code", sectionStudentParents, 1, 200, 1),
	integer("Mother's qualification", "Mother's Qualification Code", sectionStudentParents, 1, 40, 19),
	integer("Father's qualification", "Father's Qualification Code", sectionStudentParents, 1, 40, 19),
	key(category("Mother's occupation", "Mother's Occupation", sectionStudentKey, Occupation, 5)),
	integer("Father's occupation", "Father's Occupation Code", sectionStudentParents, 0, 10, 7),
	number("Admission grade", "Admission Grade", sectionStudentAdmit, 0, 200, 0.1, 126),
	yesNo("Displaced", "Lives Away from Home?", sectionStudentPersonal, 1),
	yesNo("Educational special needs", "Has Special Needs?", sectionStudentPersonal, 0),
	key(yesNo("Debtor", "Is Student a Debtor?", sectionStudentKey, 0)),
	key(yesNo("Tuition fees up to date", "Tuition Fees Up to Date?", sectionStudentKey, 1)),
	category("Gender", "Gender", sectionStudentPersonal, Gender, 0),
	yesNo("Scholarship holder", "Scholarship Holder?", sectionStudentPersonal, 0),
	integer("Age at enrollment", "Age at Enrollment", sectionStudentPersonal, 16, 70, 20),
	yesNo("International", "International Student?", sectionStudentPersonal, 0),
	number("Curricular units 1st sem (credited)", "1st Sem Credited Units", sectionStudentUnits, 0, 30, 1, 0),
	number("Curricular units 1st sem (enrolled)", "1st Sem Enrolled Units", sectionStudentUnits, 0, 30, 1, 6),
	number("Curricular units 1st sem (evaluations)", "1st Sem Assessments Taken", sectionStudentUnits, 0, 45, 1, 8),
	key(number("Curricular units 1st sem (approved)", "1st Semester Units Passed", sectionStudentKey, 0, 26, 1, 5)),
	key(number("Curricular units 1st sem (grade)", "1st Semester Avg Grade (0-20)", sectionStudentKey, 0, 20, 0.01, 12.32)),
	number("Curricular units 1st sem (without evaluations)", "1st Sem Dropped Units", sectionStudentUnits, 0, 30, 1, 0),
	number("Curricular units 2nd sem (credited)", "2nd Sem Credited Units", sectionStudentUnits, 0, 30, 1, 0),
	number("Curricular units 2nd sem (enrolled)", "2nd Sem Enrolled Units", sectionStudentUnits, 0, 30, 1, 6),
	key(number("Curricular units 2nd sem (evaluations)", "2nd Semester Assessments Taken", sectionStudentKey, 0, 33, 1, 8)),
	key(number("Curricular units 2nd sem (approved)", "2nd Semester Units Passed", sectionStudentKey, 0, 26, 1, 5)),
	key(number("Curricular units 2nd sem (grade)", "2nd Semester Avg Grade (0-20)", sectionStudentKey, 0, 20, 0.01, 12.2)),
	number("Curricular units 2nd sem (without evaluations)", "2nd Sem Dropped Units", sectionStudentUnits, 0, 30, 1, 0),
	number("Unemployment rate", "Unemployment Rate (%)", sectionStudentMacro, 0, 30, 0.1, 11.1),
	number("Inflation rate", "Inflation Rate (%)", sectionStudentMacro, -5, 20, 0.1, 1.4),
	number("GDP", "GDP (per capita in 1000s)", sectionStudentMacro, -5, 5, 0.01, 0.32),
)
