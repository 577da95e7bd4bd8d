package api

// PlanStep is one step of a generated plan.
type PlanStep struct {
	Description string `json:"description"`
}

// Plan is the ordered set of steps the agent proposes before acting.
type Plan struct {
	Title string     `json:"title,omitempty"`
	Steps []PlanStep `json:"steps,omitempty"`
}

// PlanGeneratedActivity carries a newly generated plan.
type PlanGeneratedActivity struct {
	Plan Plan `json:"plan"`
}

// PlanApprovedActivity records that a plan was approved.
type PlanApprovedActivity struct {
	PlanID string `json:"planId"`
}

// ProgressUpdatedActivity is a progress report from the agent.
type ProgressUpdatedActivity struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// SessionCompletedActivity marks the end of a session's timeline.
type SessionCompletedActivity struct{}

// ActivityKind identifies which variant an Activity carries.
type ActivityKind int

// Activity variants. KindUnknown means the payload matched none of the
// known shapes (or more than one) and must not be rendered as content.
const (
	KindUnknown ActivityKind = iota
	KindPlanGenerated
	KindPlanApproved
	KindProgressUpdated
	KindSessionCompleted
)

// String returns the kind's wire-ish name, for logs.
func (k ActivityKind) String() string {
	switch k {
	case KindPlanGenerated:
		return "planGenerated"
	case KindPlanApproved:
		return "planApproved"
	case KindProgressUpdated:
		return "progressUpdated"
	case KindSessionCompleted:
		return "sessionCompleted"
	default:
		return "unknown"
	}
}

// Activity is one event in a session's timeline. Exactly one of the
// variant pointers is expected to be non-nil; Kind resolves which.
type Activity struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	CreateTime  string `json:"createTime"`
	Originator  string `json:"originator"` // "user" | "agent"
	Description string `json:"description,omitempty"`

	PlanGenerated    *PlanGeneratedActivity    `json:"planGenerated,omitempty"`
	PlanApproved     *PlanApprovedActivity     `json:"planApproved,omitempty"`
	ProgressUpdated  *ProgressUpdatedActivity  `json:"progressUpdated,omitempty"`
	SessionCompleted *SessionCompletedActivity `json:"sessionCompleted,omitempty"`
}

// Kind resolves the activity's variant. Payloads that set zero or more
// than one variant resolve to KindUnknown.
func (a *Activity) Kind() ActivityKind {
	kind := KindUnknown
	set := 0
	if a.PlanGenerated != nil {
		kind = KindPlanGenerated
		set++
	}
	if a.PlanApproved != nil {
		kind = KindPlanApproved
		set++
	}
	if a.ProgressUpdated != nil {
		kind = KindProgressUpdated
		set++
	}
	if a.SessionCompleted != nil {
		kind = KindSessionCompleted
		set++
	}
	if set != 1 {
		return KindUnknown
	}
	return kind
}
