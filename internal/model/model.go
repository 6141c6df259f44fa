package model

import (
	"strings"
	"time"
	"unicode"

	"decom/internal/schedule"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const (
	StatusPending   = "Pendiente"
	StatusPlanning  = "En planificación"
	StatusDesign    = "En diseño"
	StatusReady     = "Lista para entrega"
	StatusDelivered = "Entregada"
)

// Statuses in display and progression order. Transitions between any two are allowed.
var Statuses = []string{StatusPending, StatusPlanning, StatusDesign, StatusReady, StatusDelivered}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

const (
	MaterialFlyer  = "flyer"
	MaterialBanner = "banner"
	MaterialVideo  = "video"
	MaterialSocial = "social"
	MaterialOther  = "other"
)

var MaterialTypes = []string{MaterialFlyer, MaterialBanner, MaterialVideo, MaterialSocial, MaterialOther}

type Committee struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	NameKey     string    `gorm:"size:100;uniqueIndex;not null" json:"-"`
	Description string    `gorm:"size:500" json:"description"`
	Color       string    `gorm:"size:7;not null" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeSave keeps NameKey in step with Name for struct saves.
// Map updates must set name_key themselves.
func (c *Committee) BeforeSave(*gorm.DB) error {
	c.NameKey = CommitteeKey(c.Name)
	return nil
}

// CommitteeKey folds case and accents so "Niños", "NIÑOS" and "ninos" collide.
func CommitteeKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	key, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return key
}

type Request struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	CommitteeID       uint          `gorm:"index;not null" json:"committee_id"`
	Committee         *Committee    `gorm:"constraint:OnDelete:RESTRICT" json:"committee,omitempty"`
	RequesterName     string        `gorm:"size:100;not null" json:"requester_name"`
	EventName         string        `gorm:"size:150;not null" json:"event_name"`
	EventDescription  string        `gorm:"type:text" json:"event_description"`
	EventDate         schedule.Date `gorm:"type:date;index;not null" json:"event_date"`
	MaterialType      string        `gorm:"size:20;not null" json:"material_type"`
	ContactPhone      string        `gorm:"size:20;not null" json:"contact_phone"`
	IncludeVerse      bool          `gorm:"not null;default:false" json:"include_verse"`
	VerseText         string        `gorm:"size:500" json:"verse_text"`
	Notes             string        `gorm:"type:text" json:"notes"`
	Status            string        `gorm:"size:30;index;not null" json:"status"`
	PriorityScore     int           `gorm:"not null" json:"priority_score"`
	PlanningStartDate schedule.Date `gorm:"type:date;not null" json:"planning_start_date"`
	DeliveryDate      schedule.Date `gorm:"type:date;not null" json:"delivery_date"`
	Visible           bool          `gorm:"not null;default:false" json:"visible"`
	CreatedBy         *uint         `json:"created_by"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	ArchivedAt        *time.Time    `gorm:"index" json:"archived_at,omitempty"`
	ArchivedBy        *uint         `json:"archived_by,omitempty"`
	ArchiveReason     string        `gorm:"size:500" json:"archive_reason,omitempty"`
}

// Reschedule re-derives the dates that hang off the event date.
func (r *Request) Reschedule(event, today schedule.Date) {
	r.EventDate = event
	r.PlanningStartDate = schedule.PlanningStart(event)
	r.DeliveryDate = schedule.Delivery(event)
	r.PriorityScore = schedule.Priority(event, today)
}

func (r *Request) Archived() bool { return r.ArchivedAt != nil }

type RequestHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RequestID uint      `gorm:"index;not null" json:"request_id"`
	OldStatus *string   `gorm:"size:30" json:"old_status"`
	NewStatus string    `gorm:"size:30;not null" json:"new_status"`
	Reason    string    `gorm:"size:500" json:"reason"`
	ActorID   *uint     `json:"actor_id"`
	ActorName string    `gorm:"size:100" json:"actor_name"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	FullName     string     `gorm:"size:100;not null" json:"full_name"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:20;not null" json:"role"`
	RoleLevel    int        `gorm:"not null" json:"role_level"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Committee) TableName() string      { return "committees" }
func (Request) TableName() string        { return "requests" }
func (RequestHistory) TableName() string { return "request_history" }
func (User) TableName() string           { return "users" }

// Tables lists every entity for migration.
func Tables() []any {
	return []any{&Committee{}, &User{}, &Request{}, &RequestHistory{}}
}
