package fhir

// Code system URLs for the vocabularies Synthea draws codes from.
const (
	SystemSNOMED   = "http://snomed.info/sct"
	SystemLOINC    = "http://loinc.org"
	SystemRxNorm   = "http://www.nlm.nih.gov/research/umls/rxnorm"
	SystemCVX      = "http://hl7.org/fhir/sid/cvx"
	SystemUCUM     = "http://unitsofmeasure.org"
	SystemDICOMDCM = "http://dicom.nema.org/resources/ontology/DCM"
)

// HL7 terminology systems referenced by the mapped resources.
const (
	SystemActCode             = "http://terminology.hl7.org/CodeSystem/v3-ActCode"
	SystemMaritalStatus       = "http://terminology.hl7.org/CodeSystem/v3-MaritalStatus"
	SystemIdentifierType      = "http://terminology.hl7.org/CodeSystem/v2-0203"
	SystemConditionClinical   = "http://terminology.hl7.org/CodeSystem/condition-clinical"
	SystemConditionVerStatus  = "http://terminology.hl7.org/CodeSystem/condition-ver-status"
	SystemConditionCategory   = "http://terminology.hl7.org/CodeSystem/condition-category"
	SystemAllergyClinical     = "http://terminology.hl7.org/CodeSystem/allergyintolerance-clinical"
	SystemAllergyVerification = "http://terminology.hl7.org/CodeSystem/allergyintolerance-verification"
	SystemObservationCategory = "http://terminology.hl7.org/CodeSystem/observation-category"
	SystemOrganizationType    = "http://terminology.hl7.org/CodeSystem/organization-type"
	SystemClaimType           = "http://terminology.hl7.org/CodeSystem/claim-type"
	SystemCoverageClass       = "http://terminology.hl7.org/CodeSystem/coverage-class"
	SystemSubscriberRel       = "http://terminology.hl7.org/CodeSystem/subscriber-relationship"
)

// Identifier system URLs for the patient identifier columns.
const (
	SystemSyntheaMRN = "urn:oid:2.16.840.1.113883.19.5"
	SystemUSSSN      = "http://hl7.org/fhir/sid/us-ssn"
	SystemUSDL       = "urn:oid:2.16.840.1.113883.4.3.25"
	SystemUSPassport = "http://hl7.org/fhir/sid/passport-USA"
)

// SystemCDCRaceEthnicity codes the OMB race and ethnicity categories
// used by the US Core extensions.
const SystemCDCRaceEthnicity = "urn:oid:2.16.840.1.113883.6.238"
