package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
)

type fakeOracle struct {
	mu        sync.Mutex
	pnToLID   map[string]string
	lidToPN   map[string]string
	pnCalls   int
	lidCalls  int
	failEvery bool
}

func (f *fakeOracle) LIDForPN(_ context.Context, pn types.JID) (types.JID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pnCalls++
	if f.failEvery {
		return types.JID{}, errors.New("oracle unavailable")
	}
	lid, ok := f.pnToLID[pn.String()]
	if !ok {
		return types.JID{}, nil
	}
	return types.ParseJID(lid)
}

func (f *fakeOracle) PNForLID(_ context.Context, lid types.JID) (types.JID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lidCalls++
	if f.failEvery {
		return types.JID{}, errors.New("oracle unavailable")
	}
	pn, ok := f.lidToPN[lid.String()]
	if !ok {
		return types.JID{}, nil
	}
	return types.ParseJID(pn)
}

func TestResolvePhoneToLinked(t *testing.T) {
	oracle := &fakeOracle{pnToLID: map[string]string{
		"5511999999999@s.whatsapp.net": "111222333@lid",
	}}
	r := NewResolver(oracle, zap.NewNop(), 0)

	if got := r.ResolvePhoneToLinked(context.Background(), "5511999999999@s.whatsapp.net"); got != "111222333@lid" {
		t.Errorf("got %q, want 111222333@lid", got)
	}
	if got := r.ResolvePhoneToLinked(context.Background(), "404@s.whatsapp.net"); got != "" {
		t.Errorf("unknown mapping = %q, want empty", got)
	}
}

func TestResolveLinkedToPhoneGuardsNonLinked(t *testing.T) {
	oracle := &fakeOracle{lidToPN: map[string]string{}}
	r := NewResolver(oracle, zap.NewNop(), 0)

	got := r.ResolveLinkedToPhone(context.Background(), "5511999999999@s.whatsapp.net")
	if got != "" {
		t.Errorf("got %q, want empty for a non-linked address", got)
	}
	if oracle.lidCalls != 0 {
		t.Errorf("oracle consulted %d times for a non-linked address", oracle.lidCalls)
	}
}

func TestResolveLinkedToPhoneDegrades(t *testing.T) {
	oracle := &fakeOracle{failEvery: true}
	r := NewResolver(oracle, zap.NewNop(), 0)

	got := r.ResolveLinkedToPhone(context.Background(), "111222333@lid")
	if got != "" {
		t.Errorf("degraded answer = %q, want empty", got)
	}
}

func TestResolveLinkedToPhone(t *testing.T) {
	oracle := &fakeOracle{lidToPN: map[string]string{
		"111222333@lid": "5511999999999@s.whatsapp.net",
	}}
	r := NewResolver(oracle, zap.NewNop(), 0)

	if got := r.ResolveLinkedToPhone(context.Background(), "111222333@lid"); got != "5511999999999" {
		t.Errorf("got %q, want 5511999999999", got)
	}
}

func TestResolveLinkedBatch(t *testing.T) {
	oracle := &fakeOracle{lidToPN: map[string]string{
		"111@lid": "5511111111111@s.whatsapp.net",
		"222@lid": "5522222222222@s.whatsapp.net",
	}}
	r := NewResolver(oracle, zap.NewNop(), 0)

	got := r.ResolveLinkedBatch(context.Background(), []string{"111@lid", "222@lid", "333@lid", "999@s.whatsapp.net"})
	if len(got) != 2 {
		t.Fatalf("resolved %d addresses, want 2: %v", len(got), got)
	}
	if got["111@lid"] != "5511111111111" || got["222@lid"] != "5522222222222" {
		t.Errorf("batch = %v", got)
	}
	if _, ok := got["333@lid"]; ok {
		t.Error("unresolvable address present in result")
	}
}

func TestNilOracleDegradesEverything(t *testing.T) {
	r := NewResolver(nil, zap.NewNop(), 0)
	if got := r.ResolvePhoneToLinked(context.Background(), "5511999999999@s.whatsapp.net"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := r.ResolveLinkedToPhone(context.Background(), "111@lid"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := r.ResolveLinkedBatch(context.Background(), []string{"111@lid"}); len(got) != 0 {
		t.Errorf("batch = %v, want empty", got)
	}
}
