/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package memory is a transactional in-memory IDataSource for tests and
// single-node development. A single writer runs at a time on a private copy of
// the state; the copy replaces the committed state only when the unit succeeds,
// so readers always see committed data and a failed unit leaves no trace.
package memory

import (
	"context"
	"sync/atomic"

	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/internal/apierror"
	"github.com/landledger/landledger/model"
)

var _ database.IDataSource = (*Store)(nil)

type seqKey struct {
	kind  string
	value string
}

type state struct {
	accounts     map[string]*model.Account
	accountOrder []string
	entries      []*model.LedgerEntry
	nextEntryID  int64
	loans        map[string]*model.Loan
	loanOrder    []string
	payments     map[string]*model.Payment
	sequences    map[seqKey]int64
	identifiers  map[seqKey]struct{}
}

func newState() *state {
	return &state{
		accounts:    make(map[string]*model.Account),
		loans:       make(map[string]*model.Loan),
		payments:    make(map[string]*model.Payment),
		sequences:   make(map[seqKey]int64),
		identifiers: make(map[seqKey]struct{}),
	}
}

// clone copies every mutable record. Ledger entries are append-only and shared.
func (s *state) clone() *state {
	c := &state{
		accounts:     make(map[string]*model.Account, len(s.accounts)),
		accountOrder: append([]string(nil), s.accountOrder...),
		entries:      append([]*model.LedgerEntry(nil), s.entries...),
		nextEntryID:  s.nextEntryID,
		loans:        make(map[string]*model.Loan, len(s.loans)),
		loanOrder:    append([]string(nil), s.loanOrder...),
		payments:     make(map[string]*model.Payment, len(s.payments)),
		sequences:    make(map[seqKey]int64, len(s.sequences)),
		identifiers:  make(map[seqKey]struct{}, len(s.identifiers)),
	}
	for k, v := range s.accounts {
		acc := *v
		c.accounts[k] = &acc
	}
	for k, v := range s.loans {
		loan := *v
		c.loans[k] = &loan
	}
	for k, v := range s.payments {
		p := *v
		c.payments[k] = &p
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	for k := range s.identifiers {
		c.identifiers[k] = struct{}{}
	}
	return c
}

// Store is safe for concurrent use.
type Store struct {
	committed atomic.Pointer[state]
	writer    chan struct{}
}

func New() *Store {
	s := &Store{writer: make(chan struct{}, 1)}
	s.committed.Store(newState())
	return s
}

func (s *Store) snapshot() *state {
	return s.committed.Load()
}

// acquire waits for the writer slot until ctx ends. A unit that cannot start
// in time is a retryable conflict, matching a lock timeout in Postgres.
func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apierror.NewAPIError(apierror.ErrConcurrencyConflict, "transaction timed out waiting for a lock, retry the operation", ctx.Err())
	}
}

func (s *Store) release() {
	<-s.writer
}

// RunInTx runs fn against a private copy of the state and publishes the copy
// when fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(tx database.Tx) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	work := s.snapshot().clone()
	if err := fn(&memTx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apierror.NewAPIError(apierror.ErrConcurrencyConflict, "transaction timed out, retry the operation", err)
	}
	s.committed.Store(work)
	return nil
}

// write runs a single-statement mutation as its own unit.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	work := s.snapshot().clone()
	if err := fn(work); err != nil {
		return err
	}
	s.committed.Store(work)
	return nil
}
