package models

// JobView is a job plus flattened link ids, used by listings.
type JobView struct {
	JobDescription
	LinkedResumeIDs      []string `json:"linkedResumeIds"`
	LinkedCoverLetterIDs []string `json:"linkedCoverLetterIds"`
}

// JobDetail is the single-job response with its audit trail.
type JobDetail struct {
	JobView
	StatusHistory      []StatusHistory   `json:"statusHistory"`
	ActivityLog        []ActivityLog     `json:"activityLog"`
	LinkedResumes      []DocumentSummary `json:"linkedResumes"`
	LinkedCoverLetters []DocumentSummary `json:"linkedCoverLetters"`
}

// DocumentView is a document plus the ids of jobs it is linked to.
type DocumentView struct {
	Document
	LinkedJobIDs []string `json:"linkedJobIds"`
}
