package model

// Pull status codes as reported by the report pull service.
const (
	PullStatusOK                    = 1
	PullStatusFailed                = -1
	PullStatusBadUserNameOrPassword = -2
	PullStatusUserNameNotExists     = -3
	PullStatusPasswordNotExists     = -4
)

// ItemError is one report item that could not be parsed.
type ItemError struct {
	RawItem string `json:"raw_item"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// ReportPullResult is the outcome of one pull. Item level failures land in
// Errors; the rest of the batch is still returned.
type ReportPullResult struct {
	Status        int                    `json:"status"`
	BatchSize     int                    `json:"batch_size"`
	Notifications []DeliveryNotification `json:"notifications"`
	Replies       []SmsReply             `json:"replies"`
	Errors        []ItemError            `json:"errors"`
}
