package model

import "decom/internal/schedule"

// Payloads carry their validation rules in binding tags. The same structs are
// bound by the API and described to clients through /api/schemas.

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=150"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

type Profile struct {
	ID          uint     `json:"id"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Role        string   `json:"role"`
	RoleLevel   int      `json:"role_level"`
	Permissions []string `json:"permissions,omitempty"`
}

type CreateRequestPayload struct {
	CommitteeID      uint   `json:"committee_id" binding:"required,gt=0"`
	RequesterName    string `json:"requester_name" binding:"required,min=2,max=100"`
	EventName        string `json:"event_name" binding:"required,min=3,max=150"`
	EventDescription string `json:"event_description" binding:"max=2000"`
	EventDate        string `json:"event_date" binding:"required,isodate,notpast"`
	MaterialType     string `json:"material_type" binding:"required,oneof=flyer banner video social other"`
	ContactPhone     string `json:"contact_phone" binding:"required,phone"`
	IncludeVerse     bool   `json:"include_verse"`
	VerseText        string `json:"verse_text" binding:"required_if=IncludeVerse true,max=500"`
	Notes            string `json:"notes" binding:"max=2000"`
}

type UpdateRequestPayload struct {
	Status           *string `json:"status" binding:"omitempty,reqstatus"`
	Reason           string  `json:"reason" binding:"max=500"`
	Visible          *bool   `json:"visible"`
	CommitteeID      *uint   `json:"committee_id" binding:"omitempty,gt=0"`
	RequesterName    *string `json:"requester_name" binding:"omitempty,min=2,max=100"`
	EventName        *string `json:"event_name" binding:"omitempty,min=3,max=150"`
	EventDescription *string `json:"event_description" binding:"omitempty,max=2000"`
	EventDate        *string `json:"event_date" binding:"omitempty,isodate"`
	MaterialType     *string `json:"material_type" binding:"omitempty,oneof=flyer banner video social other"`
	ContactPhone     *string `json:"contact_phone" binding:"omitempty,phone"`
	IncludeVerse     *bool   `json:"include_verse"`
	VerseText        *string `json:"verse_text" binding:"omitempty,max=500"`
	Notes            *string `json:"notes" binding:"omitempty,max=2000"`
}

type ArchiveRequestPayload struct {
	Reason   string `json:"reason" binding:"required,min=5,max=500"`
	Password string `json:"password" binding:"required"`
}

type CommitteePayload struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"max=500"`
	Color       string `json:"color" binding:"required,hexcolor,len=7"`
}

type CreateUserPayload struct {
	Email    string `json:"email" binding:"required,email,max=150"`
	FullName string `json:"full_name" binding:"required,min=2,max=100"`
	Role     string `json:"role" binding:"required,role"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type UpdateUserPayload struct {
	FullName *string `json:"full_name" binding:"omitempty,min=2,max=100"`
	Role     *string `json:"role" binding:"omitempty,role"`
	Active   *bool   `json:"active"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`

	// Required when users change their own password.
	CurrentPassword *string `json:"current_password" binding:"omitempty,max=72"`
}

type RequestFilter struct {
	Status          string `form:"status" binding:"omitempty,reqstatus"`
	CommitteeID     uint   `form:"committee_id"`
	MaterialType    string `form:"material_type" binding:"omitempty,oneof=flyer banner video social other"`
	Query           string `form:"q" binding:"max=100"`
	IncludeArchived bool   `form:"include_archived"`
	From            string `form:"from" binding:"omitempty,isodate"`
	To              string `form:"to" binding:"omitempty,isodate"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type RequestPage struct {
	Items    []Request `json:"items"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// CalendarEntry is the public projection of a request.
type CalendarEntry struct {
	ID                uint          `json:"id"`
	EventName         string        `json:"event_name"`
	EventDate         schedule.Date `json:"event_date"`
	MaterialType      string        `json:"material_type"`
	Status            string        `json:"status"`
	CommitteeID       uint          `json:"committee_id"`
	CommitteeName     string        `json:"committee_name"`
	CommitteeColor    string        `json:"committee_color"`
	PlanningStartDate schedule.Date `json:"planning_start_date"`
	DeliveryDate      schedule.Date `json:"delivery_date"`
	PriorityScore     int           `json:"priority_score,omitempty"`
}

type PublicStats struct {
	Total          int64            `json:"total"`
	Delivered      int64            `json:"delivered"`
	InProgress     int64            `json:"in_progress"`
	UpcomingEvents int64            `json:"upcoming_events"`
	ByStatus       map[string]int64 `json:"by_status"`
	ByMaterial     map[string]int64 `json:"by_material"`
	Committees     int64            `json:"committees"`
}

type AdminStats struct {
	PublicStats
	Archived    int64            `json:"archived"`
	Overdue     int64            `json:"overdue"`
	ByPriority  map[int]int64    `json:"by_priority"`
	ByCommittee map[string]int64 `json:"by_committee"`
	ActiveUsers int64            `json:"active_users"`
}
