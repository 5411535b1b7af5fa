package core

import (
	"errors"
	"strings"
	"time"
)

const (
	ShiftDay   Shift = "day"
	ShiftNight Shift = "night"

	PersonA Person = "a"
	PersonB Person = "b"

	StatusBooked    BookingStatus = "booked"
	StatusInvoiced  BookingStatus = "invoiced"
	StatusCollected BookingStatus = "collected"

	ExpenseVariable ExpenseKind = "variable"
	ExpenseFixed    ExpenseKind = "fixed"
)

type (
	Shift         string
	Person        string
	BookingStatus string
	ExpenseKind   string

	// Money is an amount in whole currency units.
	Money int64

	Booking struct {
		ID        string        `json:"id"`
		LocalName string        `json:"localName"`
		Amount    Money         `json:"amount"`
		Person    Person        `json:"person"`
		Shift     Shift         `json:"shift"`
		Status    BookingStatus `json:"status"`
	}

	// DayRecord holds everything recorded for one calendar date.
	DayRecord struct {
		Date          Date      `json:"date"`
		Bookings      []Booking `json:"bookings"`
		DayPackages   int       `json:"dayPackages"`
		NightPackages int       `json:"nightPackages"`
		DayTip        Money     `json:"dayTip"`
		NightTip      Money     `json:"nightTip"`
	}

	GoalState struct {
		Name          string `json:"name,omitempty"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
		Deadline      Date   `json:"deadline"`
	}

	Expense struct {
		ID            string      `json:"id"`
		Kind          ExpenseKind `json:"kind"`
		Date          Date        `json:"date"`
		Amount        Money       `json:"amount"`
		Paid          bool        `json:"paid"`
		Category      string      `json:"category,omitempty"`
		Description   string      `json:"description,omitempty"`
		Provider      string      `json:"provider,omitempty"`
		PaymentMethod string      `json:"paymentMethod,omitempty"`
		DueDate       Date        `json:"dueDate"`
	}

	// WeeklyBilling is the per-week ledger entry. RegisteredSum being set
	// marks the week as already credited to the goal.
	WeeklyBilling struct {
		WeekKey       Date       `json:"weekKey"`
		PersonATotal  *Money     `json:"personATotal,omitempty"`
		PersonBTotal  *Money     `json:"personBTotal,omitempty"`
		RegisteredSum *Money     `json:"registeredSum,omitempty"`
		RegisteredAt  *time.Time `json:"registeredAt,omitempty"`
	}

	Accessory struct {
		ID          string `json:"id"`
		URL         string `json:"url"`
		Title       string `json:"title"`
		Price       *Money `json:"price,omitempty"`
		Image       string `json:"image,omitempty"`
		Description string `json:"description,omitempty"`
		Bought      bool   `json:"bought"`
	}

	KnownLocal struct {
		Name     string `json:"name"`
		LogoURL  string `json:"logoUrl,omitempty"`
		Favorite bool   `json:"favorite"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidShift     = errors.New("invalid shift")
	ErrInvalidPerson    = errors.New("invalid person")
	ErrInvalidStatus    = errors.New("invalid booking status")
	ErrInvalidKind      = errors.New("invalid expense kind")
	ErrInvalidPackages  = errors.New("package count cannot be negative")
	ErrEmptyLocal       = errors.New("empty local name")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
)

func (s Shift) Valid() bool { return s == ShiftDay || s == ShiftNight }

func (p Person) Valid() bool { return p == PersonA || p == PersonB }

func (k ExpenseKind) Valid() bool { return k == ExpenseVariable || k == ExpenseFixed }

// Rank orders statuses along booked -> invoiced -> collected.
func (s BookingStatus) Rank() int {
	switch s {
	case StatusBooked:
		return 0
	case StatusInvoiced:
		return 1
	case StatusCollected:
		return 2
	}
	return -1
}

func (s BookingStatus) Valid() bool { return s.Rank() >= 0 }

// CanAdvanceTo reports whether moving from s to next keeps the status
// moving forward (or unchanged).
func (s BookingStatus) CanAdvanceTo(next BookingStatus) bool {
	return next.Valid() && next.Rank() >= s.Rank()
}

func (m Money) Validate() error {
	if m < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b Booking) Validate() error {
	if strings.TrimSpace(b.LocalName) == "" {
		return ErrEmptyLocal
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Person.Valid() {
		return ErrInvalidPerson
	}
	if !b.Shift.Valid() {
		return ErrInvalidShift
	}
	if !b.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

func (d DayRecord) Validate() error {
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if d.DayPackages < 0 || d.NightPackages < 0 {
		return ErrInvalidPackages
	}
	if d.DayTip < 0 || d.NightTip < 0 {
		return ErrInvalidAmount
	}
	for _, b := range d.Bookings {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clamp keeps CurrentAmount inside [0, TargetAmount].
func (g GoalState) Clamp() GoalState {
	if g.CurrentAmount < 0 {
		g.CurrentAmount = 0
	}
	if g.TargetAmount < 0 {
		g.TargetAmount = 0
	}
	if g.CurrentAmount > g.TargetAmount {
		g.CurrentAmount = g.TargetAmount
	}
	return g
}

func (g GoalState) Validate() error {
	if g.TargetAmount < 0 || g.CurrentAmount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if e.Kind == ExpenseVariable && strings.TrimSpace(e.Category) == "" && strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// Counts reports whether the expense contributes to spending totals.
// Fixed expenses only count once paid.
func (e Expense) Counts() bool {
	return e.Kind == ExpenseVariable || e.Paid
}

func (a Accessory) Validate() error {
	if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.URL) == "" {
		return ErrEmptyName
	}
	if a.Price != nil && *a.Price < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (k KnownLocal) Validate() error {
	if strings.TrimSpace(k.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Registered reports whether the week has already been credited.
func (w WeeklyBilling) Registered() bool {
	return w.RegisteredSum != nil
}
