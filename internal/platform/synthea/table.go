package synthea

import "strings"

// Table describes one Synthea CSV export: its canonical column order
// per the Synthea data dictionary and the FHIR resource type(s) its
// rows map to. Reverse is false for tables that only convert toward
// FHIR.
type Table struct {
	Name          string
	Columns       []string
	ResourceTypes []string
	Reverse       bool
}

var tables = []Table{
	{
		Name: "patients",
		Columns: []string{
			"Id", "BIRTHDATE", "DEATHDATE", "SSN", "DRIVERS", "PASSPORT",
			"PREFIX", "FIRST", "MIDDLE", "LAST", "SUFFIX", "MAIDEN", "MARITAL",
			"RACE", "ETHNICITY", "GENDER", "BIRTHPLACE",
			"ADDRESS", "CITY", "STATE", "COUNTY", "ZIP", "LAT", "LON",
		},
		ResourceTypes: []string{"Patient"},
		Reverse:       true,
	},
	{
		Name: "observations",
		Columns: []string{
			"DATE", "PATIENT", "ENCOUNTER", "CATEGORY", "CODE", "DESCRIPTION",
			"VALUE", "UNITS", "TYPE",
		},
		ResourceTypes: []string{"Observation"},
		Reverse:       true,
	},
	{
		Name: "conditions",
		Columns: []string{
			"START", "STOP", "PATIENT", "ENCOUNTER", "SYSTEM", "CODE", "DESCRIPTION",
		},
		ResourceTypes: []string{"Condition"},
		Reverse:       true,
	},
	{
		Name: "encounters",
		Columns: []string{
			"Id", "Start", "Stop", "Patient", "Organization", "Provider", "Payer",
			"EncounterClass", "Code", "Description",
			"Base_Encounter_Cost", "Total_Claim_Cost", "Payer_Coverage",
			"ReasonCode", "ReasonDescription",
		},
		ResourceTypes: []string{"Encounter"},
		Reverse:       true,
	},
	{
		Name: "procedures",
		Columns: []string{
			"START", "STOP", "PATIENT", "ENCOUNTER", "SYSTEM", "CODE", "DESCRIPTION",
			"BASE_COST", "REASONCODE", "REASONDESCRIPTION",
		},
		ResourceTypes: []string{"Procedure"},
		Reverse:       true,
	},
	{
		Name: "immunizations",
		Columns: []string{
			"DATE", "PATIENT", "ENCOUNTER", "CODE", "DESCRIPTION", "COST",
		},
		ResourceTypes: []string{"Immunization"},
		Reverse:       true,
	},
	{
		Name: "medications",
		Columns: []string{
			"START", "STOP", "PATIENT", "PAYER", "ENCOUNTER", "CODE", "DESCRIPTION",
			"Base_Cost", "Payer_Coverage", "Dispenses", "TotalCost",
			"ReasonCode", "ReasonDescription",
		},
		ResourceTypes: []string{"MedicationRequest"},
		Reverse:       true,
	},
	{
		Name: "allergies",
		Columns: []string{
			"START", "STOP", "PATIENT", "ENCOUNTER", "SYSTEM", "CODE", "DESCRIPTION",
			"TYPE", "CATEGORY",
			"REACTION1", "DESCRIPTION1", "SEVERITY1",
			"REACTION2", "DESCRIPTION2", "SEVERITY2",
		},
		ResourceTypes: []string{"AllergyIntolerance"},
		Reverse:       true,
	},
	{
		Name: "careplans",
		Columns: []string{
			"Id", "START", "STOP", "PATIENT", "ENCOUNTER", "SYSTEM", "CODE",
			"DESCRIPTION", "REASONCODE", "REASONDESCRIPTION",
		},
		ResourceTypes: []string{"CarePlan"},
		Reverse:       true,
	},
	{
		Name: "devices",
		Columns: []string{
			"START", "STOP", "PATIENT", "ENCOUNTER", "CODE", "DESCRIPTION", "UDI",
		},
		ResourceTypes: []string{"Device"},
		Reverse:       true,
	},
	{
		Name: "supplies",
		Columns: []string{
			"DATE", "PATIENT", "ENCOUNTER", "CODE", "DESCRIPTION", "QUANTITY",
		},
		ResourceTypes: []string{"SupplyDelivery"},
		Reverse:       true,
	},
	{
		Name: "organizations",
		Columns: []string{
			"Id", "Name", "Address", "City", "State", "Zip", "Lat", "Lon",
			"Phone", "Revenue", "Utilization",
		},
		ResourceTypes: []string{"Organization"},
		Reverse:       true,
	},
	{
		Name: "providers",
		Columns: []string{
			"Id", "Organization", "Name", "Gender", "Speciality",
			"Address", "City", "State", "Zip", "Lat", "Lon",
			"Encounters", "Procedures",
		},
		ResourceTypes: []string{"Practitioner", "PractitionerRole"},
		Reverse:       true,
	},
	{
		Name: "payers",
		Columns: []string{
			"Id", "Name", "Ownership", "Address", "City", "State_Headquartered",
			"Zip", "Phone",
			"Amount_Covered", "Amount_Uncovered", "Revenue",
			"Covered_Encounters", "Uncovered_Encounters",
			"Covered_Medications", "Uncovered_Medications",
			"Covered_Procedures", "Uncovered_Procedures",
			"Covered_Immunizations", "Uncovered_Immunizations",
			"Unique_Customers", "QOLS_Avg", "Member_Months",
		},
		ResourceTypes: []string{"Organization"},
		Reverse:       true,
	},
	{
		Name: "payer_transitions",
		Columns: []string{
			"Patient", "Member ID", "Start_Year", "End_Year",
			"Payer", "Secondary Payer", "Ownership", "Owner Name",
		},
		ResourceTypes: []string{"Coverage"},
		Reverse:       true,
	},
	{
		Name: "claims",
		Columns: []string{
			"Id", "Patient ID", "Provider ID",
			"Primary Patient Insurance ID", "Secondary Patient Insurance ID",
			"Department ID", "Patient Department ID",
			"Diagnosis1", "Diagnosis2", "Diagnosis3", "Diagnosis4",
			"Diagnosis5", "Diagnosis6", "Diagnosis7", "Diagnosis8",
			"Referring Provider ID", "Appointment ID",
			"Current Illness Date", "Service Date", "Supervising Provider ID",
			"Status1", "Status2", "StatusP",
			"Outstanding1", "Outstanding2", "OutstandingP",
			"LastBilledDate1", "LastBilledDate2", "LastBilledDateP",
			"HealthcareClaimTypeID1", "HealthcareClaimTypeID2",
		},
		ResourceTypes: []string{"Claim"},
		Reverse:       true,
	},
	{
		Name: "claims_transactions",
		Columns: []string{
			"Id", "Claim ID", "Charge ID", "Patient ID", "Type", "Amount",
			"Method", "From Date", "To Date", "Place of Service",
			"Procedure Code", "Modifier1", "Modifier2",
			"DiagnosisRef1", "DiagnosisRef2", "DiagnosisRef3", "DiagnosisRef4",
			"Units", "Department ID", "Notes", "Unit Amount",
			"Transfer Out ID", "Transfer Type",
			"Payments", "Adjustments", "Transfers", "Outstanding",
			"Appointment ID", "Line Note", "Patient Insurance ID",
			"Fee Schedule ID", "Provider ID", "Supervising Provider ID",
		},
		ResourceTypes: []string{"Claim", "ClaimResponse"},
		Reverse:       true,
	},
	{
		Name: "imaging_studies",
		Columns: []string{
			"Id", "DATE", "PATIENT", "ENCOUNTER",
			"SERIES_UID", "INSTANCE_UID",
			"BODYSITE_CODE", "BODYSITE_DESCRIPTION",
			"MODALITY_CODE", "MODALITY_DESCRIPTION",
			"SOP_CODE", "SOP_DESCRIPTION",
		},
		ResourceTypes: []string{"ImagingStudy"},
		Reverse:       false,
	},
}

// Tables returns the registry of known Synthea tables in a stable
// order.
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// LookupTable finds a table by name, case-insensitively. A trailing
// ".csv" is tolerated so file names can be passed straight through.
func LookupTable(name string) (Table, bool) {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), ".csv"))
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
