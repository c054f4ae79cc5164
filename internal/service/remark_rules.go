package service

import (
	"fmt"
	"strings"

	"issue-service/internal/model"
)

var allowedRemarks = map[string][]model.RemarkType{
	model.IssueStatusPending:    {model.RemarkTypeRF, model.RemarkTypePR, model.RemarkTypeNew},
	model.IssueStatusInProgress: {model.RemarkTypeRF, model.RemarkTypePR, model.RemarkTypeNew},
	model.IssueStatusCompleted:  {model.RemarkTypeOK},
}

// ValidateStatusRemark checks that a remark type may accompany the given status.
// Statuses outside the table are not restricted.
func ValidateStatusRemark(status string, remarkType model.RemarkType) error {
	status = strings.ToUpper(strings.TrimSpace(status))

	allowed, known := allowedRemarks[status]
	if !known {
		return nil
	}
	for _, t := range allowed {
		if t == remarkType {
			return nil
		}
	}

	switch {
	case status == model.IssueStatusCompleted:
		return newValidationError(fmt.Sprintf("When status is COMPLETED, remark must be OK. You selected: %s", remarkType))
	case remarkType == model.RemarkTypeOK:
		return newValidationError(fmt.Sprintf("OK remark can only be used with COMPLETED status. Current status: %s", status))
	default:
		return newValidationError(fmt.Sprintf("Invalid status and remark combination: Status=%s, Remark=%s", status, remarkType))
	}
}
