// Package inmemdb provides map-backed repositories for tests. Repositories
// honor the same ordering fields the services request from PostgreSQL.
package inmemdb

import (
	"sync"

	"github.com/voyago/voyago/core/analytics"
	"github.com/voyago/voyago/core/booking"
	"github.com/voyago/voyago/core/customer"
	"github.com/voyago/voyago/core/document"
	"github.com/voyago/voyago/core/operator"
	"github.com/voyago/voyago/core/tour"
)

type DB struct {
	mu sync.RWMutex

	operators  map[string]*operator.Operator
	users      map[string]*operator.User
	tours      map[string]*tour.Tour
	departures map[string]*tour.Departure
	uploads    map[string]*document.Upload
	jobs       map[string]*document.Job
	customers  map[string]*customer.Customer
	notes      map[string]*customer.Note
	bookings   map[string]*booking.Booking
	records    map[string]*analytics.Record
}

func New() *DB {
	db := new(DB)
	db.reset()
	return db
}

// Reset drops all stored records; tests call it between cases.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.reset()
}

func (db *DB) reset() {
	db.operators = make(map[string]*operator.Operator)
	db.users = make(map[string]*operator.User)
	db.tours = make(map[string]*tour.Tour)
	db.departures = make(map[string]*tour.Departure)
	db.uploads = make(map[string]*document.Upload)
	db.jobs = make(map[string]*document.Job)
	db.customers = make(map[string]*customer.Customer)
	db.notes = make(map[string]*customer.Note)
	db.bookings = make(map[string]*booking.Booking)
	db.records = make(map[string]*analytics.Record)
}
