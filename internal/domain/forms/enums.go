package forms

// SubmissionStatus represents the lifecycle state of a submission.
// draft is a reserved state: it is accepted by the state machine but no
// operation currently creates a draft.
type SubmissionStatus string

const (
	StatusDraft     SubmissionStatus = "draft"
	StatusSubmitted SubmissionStatus = "submitted"
	StatusCompleted SubmissionStatus = "completed"
)

// IsValid checks if the submission status is valid
func (s SubmissionStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Allowed transitions: draft -> submitted -> completed.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	switch s {
	case StatusDraft:
		return next == StatusSubmitted
	case StatusSubmitted:
		return next == StatusCompleted
	}
	return false
}

// ChannelType identifies one independent distribution target.
type ChannelType string

const (
	ChannelDownload    ChannelType = "download"
	ChannelEmail       ChannelType = "email"
	ChannelCloudUpload ChannelType = "cloudUpload"
	ChannelServerSave  ChannelType = "serverSave"

	// ChannelConversion is the synthetic entry a conversion failure is
	// recorded under; it is never dispatched as a real channel.
	ChannelConversion ChannelType = "conversion"
)

// AllChannels returns the distribution channels dispatched for every
// pipeline run, in dispatch order.
func AllChannels() []ChannelType {
	return []ChannelType{ChannelDownload, ChannelEmail, ChannelCloudUpload, ChannelServerSave}
}

// IsValid checks if the channel type is a dispatchable channel
func (c ChannelType) IsValid() bool {
	switch c {
	case ChannelDownload, ChannelEmail, ChannelCloudUpload, ChannelServerSave:
		return true
	}
	return false
}

// OutcomeStatus represents the settled state of one channel's delivery.
type OutcomeStatus string

const (
	OutcomePending   OutcomeStatus = "pending"
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// FieldType is the closed set of value kinds the interpolation engine
// formats. Each variant has exactly one formatter; lookup happens via a
// table so exhaustiveness stays checkable.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldDate    FieldType = "date"
	FieldBoolean FieldType = "boolean"
	FieldList    FieldType = "list"
	FieldGroup   FieldType = "group"
)

// IsValid checks if the field type is valid
func (f FieldType) IsValid() bool {
	switch f {
	case FieldText, FieldNumber, FieldDate, FieldBoolean, FieldList, FieldGroup:
		return true
	}
	return false
}

// FormTypeUniversal marks a template applicable to any form type.
const FormTypeUniversal = "universal"
