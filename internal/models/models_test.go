package models

import (
	"testing"
	"time"
)

func TestMembershipApplication_GetUserID(t *testing.T) {
	app := &MembershipApplication{UserID: 42}
	if got := app.GetUserID(); got != 42 {
		t.Errorf("GetUserID() = %d, want 42", got)
	}
}

func TestApplicationState_Decided(t *testing.T) {
	tests := []struct {
		state ApplicationState
		want  bool
	}{
		{StateNew, false},
		{StateUnderReview, false},
		{StateWaitingForApplicant, false},
		{StateReadyForReview, false},
		{StateAccepted, true},
		{StateRejected, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Decided(); got != tt.want {
				t.Errorf("Decided() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"both names", User{FirstName: "Anna", LastName: "Berg"}, "Anna Berg"},
		{"first only", User{FirstName: "Anna"}, "Anna"},
		{"none", User{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUser_HasMembershipNumber(t *testing.T) {
	blank := "  "
	num := "101"
	if (&User{}).HasMembershipNumber() {
		t.Error("nil number should not count")
	}
	if (&User{MembershipNumber: &blank}).HasMembershipNumber() {
		t.Error("blank number should not count")
	}
	if !(&User{MembershipNumber: &num}).HasMembershipNumber() {
		t.Error("expected number to count")
	}
}

func TestUser_IsMemberOrAdmin(t *testing.T) {
	if (&User{}).IsMemberOrAdmin() {
		t.Error("plain user is neither member nor admin")
	}
	if !(&User{Member: true}).IsMemberOrAdmin() {
		t.Error("member expected")
	}
	if !(&User{Admin: true}).IsMemberOrAdmin() {
		t.Error("admin expected")
	}
}

func TestWaitingReason_Name(t *testing.T) {
	w := &WaitingReason{NameSV: "Saknar dokument", NameEN: "Missing documents"}
	if got := w.Name("en"); got != "Missing documents" {
		t.Errorf("Name(en) = %q", got)
	}
	if got := w.Name("sv"); got != "Saknar dokument" {
		t.Errorf("Name(sv) = %q", got)
	}

	svOnly := &WaitingReason{NameSV: "Övrigt"}
	if got := svOnly.Name("en"); got != "Övrigt" {
		t.Errorf("Name(en) without translation = %q, want Swedish fallback", got)
	}
}

func TestOrderToPaymentStatus(t *testing.T) {
	tests := []struct {
		order string
		want  string
	}{
		{"", PaymentStatusCreated},
		{"pending", PaymentStatusPending},
		{"successful", PaymentStatusPaid},
		{"expired", PaymentStatusExpired},
		{"awaiting_payments", PaymentStatusAwaitingPayment},
		{"refunded", PaymentStatusUnknown},
		{"SUCCESSFUL", PaymentStatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			if got := OrderToPaymentStatus(tt.order); got != tt.want {
				t.Errorf("OrderToPaymentStatus(%q) = %q, want %q", tt.order, got, tt.want)
			}
		})
	}
}

func TestPayment_CoversDate(t *testing.T) {
	p := &Payment{
		StartDate:  time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpireDate: time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	tests := []struct {
		day  time.Time
		want bool
	}{
		{time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		if got := p.CoversDate(tt.day); got != tt.want {
			t.Errorf("CoversDate(%s) = %v, want %v", tt.day.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestAddress_EntireAddress(t *testing.T) {
	addr := Address{
		StreetAddress: "Storgatan 1",
		PostCode:      "111 22",
		City:          "Stockholm",
		Kommun:        &Kommun{Name: "Stockholm kommun"},
		Visibility:    VisibilityStreetAddress,
	}

	tests := []struct {
		visibility string
		full       bool
		want       string
	}{
		{VisibilityStreetAddress, false, "Storgatan 1, 111 22, Stockholm, Stockholm kommun, Sverige"},
		{VisibilityPostCode, false, "111 22, Stockholm, Stockholm kommun, Sverige"},
		{VisibilityCity, false, "Stockholm, Stockholm kommun, Sverige"},
		{VisibilityKommun, false, "Stockholm kommun, Sverige"},
		{VisibilityNone, false, ""},
		{VisibilityNone, true, "Storgatan 1, 111 22, Stockholm, Stockholm kommun, Sverige"},
	}
	for _, tt := range tests {
		t.Run(tt.visibility, func(t *testing.T) {
			a := addr
			a.Visibility = tt.visibility
			if got := a.EntireAddress(tt.full); got != tt.want {
				t.Errorf("EntireAddress(%v) = %q, want %q", tt.full, got, tt.want)
			}
		})
	}
}

func TestAddress_AddressArraySkipsBlanks(t *testing.T) {
	a := Address{City: "Malmö", Country: "Sverige", Visibility: VisibilityStreetAddress}
	got := a.AddressArray(false)
	if len(got) != 2 || got[0] != "Malmö" || got[1] != "Sverige" {
		t.Errorf("AddressArray() = %v, want [Malmö Sverige]", got)
	}
}

func TestAddress_Geocoded(t *testing.T) {
	lat, lon := 59.3, 18.0
	if (&Address{Latitude: &lat}).Geocoded() {
		t.Error("half a coordinate is not geocoded")
	}
	if !(&Address{Latitude: &lat, Longitude: &lon}).Geocoded() {
		t.Error("expected geocoded")
	}
}
