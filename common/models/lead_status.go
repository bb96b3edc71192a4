package models

// LeadStatus represents the sales pipeline state of a lead
type LeadStatus string

const (
	// LeadStatusNew is the status every ingested lead starts in
	LeadStatusNew LeadStatus = "new"
	// LeadStatusContacted indicates outreach has happened
	LeadStatusContacted LeadStatus = "contacted"
	// LeadStatusQualified indicates the lead passed qualification
	LeadStatusQualified LeadStatus = "qualified"
	// LeadStatusClosed indicates the lead is no longer worked
	LeadStatusClosed LeadStatus = "closed"
)
