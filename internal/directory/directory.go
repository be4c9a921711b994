// Package directory keeps an in-memory, observable list of students in step
// with a document store.
//
// Commands (AddStudent, UpdateStudent, DeleteStudent) return immediately.
// Each store call runs on its own goroutine, and whatever the store call
// would have reported to a completion callback is handled by the code that
// follows it on that goroutine. Failures are logged and go no further; the
// only visible effect of a command is the list changing after the refresh
// that follows it.
//
// A refresh lists the students collection, then lists every student's phones
// concurrently. Each time one of those listings completes, the students
// assembled so far are published, sorted by name. Consumers therefore see a
// growing partial list before the full one. Overlapping refreshes are not
// coordinated: whichever publishes last wins.
package directory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/aanand-mishra/students-sync/internal/storage"
	"github.com/aanand-mishra/students-sync/internal/types"
	"golang.org/x/sync/errgroup"
)

// Store layout.
const (
	StudentsCollection = "students"
	PhonesCollection   = "phones"

	FieldID      = "id"
	FieldName    = "name"
	FieldProgram = "program"
	FieldNumber  = "number"
)

// Option configures a Directory.
type Option func(*Directory)

// WithMaxInFlight bounds the concurrent phone deletions and additions of a
// single update. n <= 0 leaves them unbounded.
func WithMaxInFlight(n int) Option {
	return func(d *Directory) { d.maxInFlight = n }
}

// Directory is the student directory synchronizer.
type Directory struct {
	store       storage.Storage
	log         *slog.Logger
	maxInFlight int

	mu       sync.RWMutex
	students []types.Student
	subs     map[int]chan []types.Student
	nextSub  int

	inflight sync.WaitGroup
}

// New returns a Directory over store and starts the initial load.
func New(store storage.Storage, log *slog.Logger, opts ...Option) *Directory {
	d := &Directory{
		store:    store,
		log:      log,
		students: []types.Student{},
		subs:     make(map[int]chan []types.Student),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.Reload()
	return d
}

// Students returns a copy of the most recently published list.
func (d *Directory) Students() []types.Student {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return cloneStudents(d.students)
}

// Subscribe returns a channel that receives every published list, and a
// function that stops the subscription. A subscriber that falls behind only
// sees the latest list. The channel is never closed.
func (d *Directory) Subscribe() (<-chan []types.Student, func()) {
	ch := make(chan []types.Student, 1)

	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

// Wait blocks until every store call issued so far, and everything they
// trigger in turn, has finished.
func (d *Directory) Wait() {
	d.inflight.Wait()
}

// Reload refreshes the list from the store.
func (d *Directory) Reload() {
	d.spawn(d.refresh)
}

// ─────────────────────────────────────────────────────────────────────────────
// AddStudent creates the student's document, then one document per phone in
// its phones sub-collection. The phone writes are not awaited: the refresh
// starts as soon as the student document exists.
// ─────────────────────────────────────────────────────────────────────────────
func (d *Directory) AddStudent(student types.Student) {
	d.spawn(func(ctx context.Context) {
		docID, err := d.store.Add(ctx, StudentsCollection, studentFields(student))
		if err != nil {
			d.log.Warn("error adding student",
				slog.String("name", student.Name),
				slog.String("error", err.Error()))
			return
		}

		d.log.Debug("student added", slog.String("doc_id", docID))

		phones := storage.SubCollection(StudentsCollection, docID, PhonesCollection)
		for _, phone := range student.Phones {
			d.spawn(func(ctx context.Context) {
				if _, err := d.store.Add(ctx, phones, phoneFields(phone)); err != nil {
					d.log.Error("failed to add phone",
						slog.String("doc_id", docID),
						slog.String("phone", phone),
						slog.String("error", err.Error()))
					return
				}
				d.log.Debug("phone added",
					slog.String("doc_id", docID),
					slog.String("phone", phone))
			})
		}

		d.refresh(ctx)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStudent overwrites the student's document and replaces its phones:
// every existing phone document is deleted, then the current numbers are
// added. Each phase waits for all of its writes, failed or not, before the
// next one starts. Nothing is rolled back when a phase partially fails.
// ─────────────────────────────────────────────────────────────────────────────
func (d *Directory) UpdateStudent(student types.Student) {
	if student.DocID == "" {
		d.log.Error("cannot update student without doc id", slog.String("name", student.Name))
		return
	}

	d.spawn(func(ctx context.Context) {
		err := d.store.Set(ctx, StudentsCollection, student.DocID, studentFields(student))
		if err != nil {
			d.log.Warn("error updating student",
				slog.String("doc_id", student.DocID),
				slog.String("error", err.Error()))
			return
		}

		phones := storage.SubCollection(StudentsCollection, student.DocID, PhonesCollection)

		existing, err := d.store.List(ctx, phones)
		if err != nil {
			d.log.Warn("error fetching phones",
				slog.String("doc_id", student.DocID),
				slog.String("error", err.Error()))
			return
		}

		deletes := d.group()
		for _, doc := range existing {
			deletes.Go(func() error {
				if err := d.store.Delete(ctx, phones, doc.ID); err != nil {
					d.log.Error("failed to delete phone",
						slog.String("doc_id", student.DocID),
						slog.String("phone", doc.String(FieldNumber)),
						slog.String("error", err.Error()))
					return err
				}
				return nil
			})
		}
		_ = deletes.Wait()

		adds := d.group()
		for _, phone := range student.Phones {
			adds.Go(func() error {
				if _, err := d.store.Add(ctx, phones, phoneFields(phone)); err != nil {
					d.log.Error("failed to add phone",
						slog.String("doc_id", student.DocID),
						slog.String("phone", phone),
						slog.String("error", err.Error()))
					return err
				}
				return nil
			})
		}
		_ = adds.Wait()

		d.log.Debug("student updated", slog.String("doc_id", student.DocID))
		d.refresh(ctx)
	})
}

// DeleteStudent deletes the student's document only. Its phone documents are
// left in the store.
func (d *Directory) DeleteStudent(student types.Student) {
	if student.DocID == "" {
		d.log.Error("cannot delete student without doc id", slog.String("name", student.Name))
		return
	}

	d.spawn(func(ctx context.Context) {
		if err := d.store.Delete(ctx, StudentsCollection, student.DocID); err != nil {
			d.log.Error("error deleting student",
				slog.String("doc_id", student.DocID),
				slog.String("error", err.Error()))
			return
		}

		d.log.Debug("student deleted", slog.String("doc_id", student.DocID))
		d.refresh(ctx)
	})
}

// refresh lists the students and starts one phone listing per student.
// A student whose phones cannot be listed is left out of this refresh.
func (d *Directory) refresh(ctx context.Context) {
	docs, err := d.store.List(ctx, StudentsCollection)
	if err != nil {
		d.log.Warn("error fetching students", slog.String("error", err.Error()))
		return
	}

	if len(docs) == 0 {
		d.publish([]types.Student{})
		return
	}

	acc := &accumulator{}
	for _, doc := range docs {
		student := types.Student{
			DocID:   doc.ID,
			ID:      doc.String(FieldID),
			Name:    doc.String(FieldName),
			Program: doc.String(FieldProgram),
		}

		d.spawn(func(ctx context.Context) {
			phoneDocs, err := d.store.List(ctx,
				storage.SubCollection(StudentsCollection, student.DocID, PhonesCollection))
			if err != nil {
				d.log.Warn("error fetching phones",
					slog.String("doc_id", student.DocID),
					slog.String("error", err.Error()))
				return
			}

			student.Phones = make([]string, 0, len(phoneDocs))
			for _, p := range phoneDocs {
				if number, ok := p.Data[FieldNumber].(string); ok {
					student.Phones = append(student.Phones, number)
				}
			}

			acc.add(student, d.publish)
		})
	}
}

// publish replaces the list and hands it to every subscriber, dropping a
// subscriber's unread value in favour of the new one.
func (d *Directory) publish(students []types.Student) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.students = students
	for _, ch := range d.subs {
		snapshot := cloneStudents(students)
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// spawn runs fn on a new goroutine tracked by Wait. Store calls get no
// deadline and cannot be cancelled once issued.
func (d *Directory) spawn(fn func(ctx context.Context)) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		fn(context.Background())
	}()
}

func (d *Directory) group() *errgroup.Group {
	g := &errgroup.Group{}
	if d.maxInFlight > 0 {
		g.SetLimit(d.maxInFlight)
	}
	return g
}

// accumulator collects the students of one refresh as their phones arrive.
type accumulator struct {
	mu       sync.Mutex
	students []types.Student
}

// add appends s and hands the accumulated students, sorted by name, to
// publish. publish runs under a.mu so publications of one refresh never go
// out of order and the last one always holds every student.
func (a *accumulator) add(s types.Student, publish func([]types.Student)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.students = append(a.students, s)

	sorted := cloneStudents(a.students)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	publish(sorted)
}

func studentFields(s types.Student) map[string]any {
	return map[string]any{
		FieldID:      s.ID,
		FieldName:    s.Name,
		FieldProgram: s.Program,
	}
}

func phoneFields(phone string) map[string]any {
	return map[string]any{FieldNumber: phone}
}

func cloneStudents(in []types.Student) []types.Student {
	out := make([]types.Student, len(in))
	for i, s := range in {
		out[i] = s
		if s.Phones != nil {
			out[i].Phones = append([]string(nil), s.Phones...)
		}
	}
	return out
}
