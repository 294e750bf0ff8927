package sync

import (
	"testing"

	"github.com/marat/regdesk/internal/api"
)

func TestSyncRegistrations_InsertAndUpdate(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	client := newStubClient()
	reg := makeRegistrationDTO(1)
	client.regPages[100] = map[int]*api.RegistrationPage{
		1: {Registrations: []api.RegistrationDTO{reg}, Pagination: api.Pagination{Page: 1, TotalPages: 1}},
	}

	s := newTestSyncer(conn, client)
	n, err := s.SyncRegistrations(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count: got %d, want 1", n)
	}

	reg.ParticipantsCount = 8
	reg.Status = "REJECTED"
	client.regPages[100][1].Registrations = []api.RegistrationDTO{reg}
	if _, err := s.SyncRegistrations(100); err != nil {
		t.Fatal(err)
	}

	var participants, count int
	var status string
	conn.QueryRow(`SELECT participants_count, status FROM registrations WHERE server_id = 1`).Scan(&participants, &status)
	conn.QueryRow(`SELECT COUNT(*) FROM registrations`).Scan(&count)
	if participants != 8 || status != "REJECTED" {
		t.Errorf("got participants=%d status=%q", participants, status)
	}
	if count != 1 {
		t.Errorf("count: got %d, want 1", count)
	}
}

func TestSyncRegistrations_PagingStopsAtTotalPages(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	client := newStubClient()
	pages := map[int]*api.RegistrationPage{}
	id := int64(1)
	for p := 1; p <= 3; p++ {
		var regs []api.RegistrationDTO
		for i := 0; i < 2; i++ {
			regs = append(regs, makeRegistrationDTO(id))
			id++
		}
		pages[p] = &api.RegistrationPage{
			Registrations: regs,
			Pagination:    api.Pagination{Page: p, TotalPages: 3, Total: 6},
		}
	}
	client.regPages[100] = pages

	n, err := newTestSyncer(conn, client).SyncRegistrations(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Fatalf("count: got %d, want 6", n)
	}

	var count int
	conn.QueryRow(`SELECT COUNT(*) FROM registrations`).Scan(&count)
	if count != 6 {
		t.Fatalf("rows: got %d, want 6", count)
	}
	if client.regCalls != 3 {
		t.Fatalf("page requests: got %d, want 3", client.regCalls)
	}
}

func TestSyncRegistrations_StopsOnEmptyPage(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	client := newStubClient()
	// The server over-reports TotalPages; the empty second page
	// terminates the loop early.
	client.regPages[100] = map[int]*api.RegistrationPage{
		1: {
			Registrations: []api.RegistrationDTO{makeRegistrationDTO(1)},
			Pagination:    api.Pagination{Page: 1, TotalPages: 5},
		},
	}

	n, err := newTestSyncer(conn, client).SyncRegistrations(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count: got %d, want 1", n)
	}
	if client.regCalls != 2 {
		t.Fatalf("page requests: got %d, want 2", client.regCalls)
	}
}

func TestSyncRegistrations_MissingPaginationStopsAfterFirstPage(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	client := newStubClient()
	// No pagination block at all: the first page is taken as the whole
	// collection, even when a later page would have rows.
	client.regPages[100] = map[int]*api.RegistrationPage{
		1: {Registrations: []api.RegistrationDTO{makeRegistrationDTO(1), makeRegistrationDTO(2)}},
		2: {Registrations: []api.RegistrationDTO{makeRegistrationDTO(3)}},
	}

	n, err := newTestSyncer(conn, client).SyncRegistrations(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("count: got %d, want 2", n)
	}
	if client.regCalls != 1 {
		t.Fatalf("page requests: got %d, want 1", client.regCalls)
	}
}

func TestSyncRegistrations_SkipsRowsMissingRequiredRefs(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	bad := makeRegistrationDTO(2)
	bad.DisciplineID = nil
	unknown := makeRegistrationDTO(3)
	unknown.AgeID = int64Ptr(999)

	client := newStubClient()
	client.regPages[100] = map[int]*api.RegistrationPage{
		1: {
			Registrations: []api.RegistrationDTO{makeRegistrationDTO(1), bad, unknown},
			Pagination:    api.Pagination{Page: 1, TotalPages: 1},
		},
	}

	n, err := newTestSyncer(conn, client).SyncRegistrations(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count: got %d, want 1 (bad rows skipped)", n)
	}

	var count int
	conn.QueryRow(`SELECT COUNT(*) FROM registrations`).Scan(&count)
	if count != 1 {
		t.Fatalf("rows: got %d, want 1", count)
	}
}

func TestSyncRegistrations_RowFailureDoesNotBlockOthers(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	var regs []api.RegistrationDTO
	for i := int64(1); i <= 10; i++ {
		r := makeRegistrationDTO(i)
		if i == 5 {
			r.EventID = int64Ptr(999) // never pulled
		}
		regs = append(regs, r)
	}

	client := newStubClient()
	client.regPages[100] = map[int]*api.RegistrationPage{
		1: {Registrations: regs, Pagination: api.Pagination{Page: 1, TotalPages: 1}},
	}

	n, err := newTestSyncer(conn, client).SyncRegistrations(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 9 {
		t.Fatalf("count: got %d, want 9", n)
	}
}

func TestSyncRegistrations_CreatesCollectiveStub(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	named := makeRegistrationDTO(1)
	named.CollectiveID = int64Ptr(70)
	named.Collective = &api.CollectiveDTO{ID: 70, Name: "Alpha"}

	bare := makeRegistrationDTO(2)
	bare.CollectiveID = int64Ptr(71)

	client := newStubClient()
	client.regPages[100] = map[int]*api.RegistrationPage{
		1: {Registrations: []api.RegistrationDTO{named, bare}, Pagination: api.Pagination{Page: 1, TotalPages: 1}},
	}

	if _, err := newTestSyncer(conn, client).SyncRegistrations(100); err != nil {
		t.Fatal(err)
	}

	var name string
	if err := conn.QueryRow(`SELECT name FROM collectives WHERE server_id = 70`).Scan(&name); err != nil {
		t.Fatalf("named stub: %v", err)
	}
	if name != "Alpha" {
		t.Errorf("name: got %q, want Alpha", name)
	}

	if err := conn.QueryRow(`SELECT name FROM collectives WHERE server_id = 71`).Scan(&name); err != nil {
		t.Fatalf("placeholder stub: %v", err)
	}
	if name != "Collective 71" {
		t.Errorf("placeholder name: got %q", name)
	}

	// Both registrations link to the stubs
	var linked int
	conn.QueryRow(`SELECT COUNT(*) FROM registrations WHERE collective_id IS NOT NULL`).Scan(&linked)
	if linked != 2 {
		t.Errorf("linked registrations: got %d, want 2", linked)
	}
}

func TestSyncRegistrations_PageFetchFailureRollsBackWholeEvent(t *testing.T) {
	conn := setupSyncDB(t)
	seedReplica(t, conn)

	client := newStubClient()
	client.regPages[100] = map[int]*api.RegistrationPage{
		1: {
			Registrations: []api.RegistrationDTO{makeRegistrationDTO(1), makeRegistrationDTO(2)},
			Pagination:    api.Pagination{Page: 1, TotalPages: 2, Total: 3},
		},
	}
	client.regFailPage = 2

	if _, err := newTestSyncer(conn, client).SyncRegistrations(100); err == nil {
		t.Fatal("expected error")
	}

	// Page 1 rows must not survive the failed pass
	var count int
	conn.QueryRow(`SELECT COUNT(*) FROM registrations`).Scan(&count)
	if count != 0 {
		t.Fatalf("rows after rollback: got %d, want 0", count)
	}
}
