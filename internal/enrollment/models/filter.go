package models

// RecordFilter selects records for listing. Zero fields do not filter.
// Results are ordered by creation time, oldest first.
type RecordFilter struct {
	WorkflowStatuses []WorkflowStatus
	BiometricStatus  BiometricStatus
	FlowCreated      *bool
	Blocked          *bool
	IDs              []int64
	Limit            int
}

// Matches reports whether r satisfies every set field of f.
func (f RecordFilter) Matches(r *Record) bool {
	if len(f.WorkflowStatuses) > 0 && !containsStatus(f.WorkflowStatuses, r.WorkflowStatus) {
		return false
	}
	if f.BiometricStatus != "" && r.BiometricStatus != f.BiometricStatus {
		return false
	}
	if f.FlowCreated != nil && r.FlowCreated != *f.FlowCreated {
		return false
	}
	if f.Blocked != nil && r.Blocked != *f.Blocked {
		return false
	}
	if len(f.IDs) > 0 {
		found := false
		for _, id := range f.IDs {
			if id == r.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsStatus(list []WorkflowStatus, s WorkflowStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// PendingVerification selects approved records waiting on core-banking confirmation.
func PendingVerification(ids []int64, limit int) RecordFilter {
	notCreated := false
	return RecordFilter{
		WorkflowStatuses: []WorkflowStatus{WorkflowInCoreBanking, WorkflowBiometryOK},
		BiometricStatus:  BiometricApproved,
		FlowCreated:      &notCreated,
		IDs:              ids,
		Limit:            limit,
	}
}
