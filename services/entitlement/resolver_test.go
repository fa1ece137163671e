package entitlement

import (
	"testing"

	"github.com/coinacademy/api/model"
)

func activeUser() *model.User {
	return &model.User{Status: model.UserStatusActive, Role: model.RoleStudent}
}

func suspendedUser() *model.User {
	return &model.User{Status: model.UserStatusSuspended, Role: model.RoleStudent}
}

func TestDecideFreeLessonBeatsEverything(t *testing.T) {
	lesson := &model.Lesson{IsFree: true}

	// Free wins for anonymous viewers
	if got := decide(lesson, nil, false, false); got != AccessFree {
		t.Errorf("anonymous free lesson = %q, want free", got)
	}

	// Free wins even for suspended users
	if got := decide(lesson, suspendedUser(), false, false); got != AccessFree {
		t.Errorf("suspended free lesson = %q, want free", got)
	}

	// Free wins even when the viewer also has a subscription
	if got := decide(lesson, activeUser(), true, true); got != AccessFree {
		t.Errorf("subscribed free lesson = %q, want free", got)
	}
}

func TestDecideAnonymousLocked(t *testing.T) {
	lesson := &model.Lesson{IsFree: false}

	if got := decide(lesson, nil, false, false); got != AccessLocked {
		t.Errorf("anonymous gated lesson = %q, want locked", got)
	}
}

func TestDecideSuspensionLocksGatedContent(t *testing.T) {
	lesson := &model.Lesson{IsFree: false}

	// Suspension overrides both subscription and purchase
	if got := decide(lesson, suspendedUser(), true, true); got != AccessLocked {
		t.Errorf("suspended with entitlements = %q, want locked", got)
	}
}

func TestDecideSubscriptionBeatsPurchase(t *testing.T) {
	lesson := &model.Lesson{IsFree: false}

	// Subscription check runs before the enrollment check
	if got := decide(lesson, activeUser(), true, true); got != AccessSubscribed {
		t.Errorf("subscribed and purchased = %q, want subscribed", got)
	}

	if got := decide(lesson, activeUser(), true, false); got != AccessSubscribed {
		t.Errorf("subscribed only = %q, want subscribed", got)
	}

	if got := decide(lesson, activeUser(), false, true); got != AccessPurchased {
		t.Errorf("purchased only = %q, want purchased", got)
	}
}

func TestDecideDefaultLocked(t *testing.T) {
	lesson := &model.Lesson{IsFree: false}

	if got := decide(lesson, activeUser(), false, false); got != AccessLocked {
		t.Errorf("no entitlements = %q, want locked", got)
	}

	// Missing lesson is always locked
	if got := decide(nil, activeUser(), true, true); got != AccessLocked {
		t.Errorf("missing lesson = %q, want locked", got)
	}
}

func TestAccessTierWireValues(t *testing.T) {
	tiers := map[AccessTier]string{
		AccessFree:       "free",
		AccessSubscribed: "subscribed",
		AccessPurchased:  "purchased",
		AccessLocked:     "locked",
	}
	for tier, want := range tiers {
		if string(tier) != want {
			t.Errorf("tier %v = %q, want %q", tier, string(tier), want)
		}
	}
}
