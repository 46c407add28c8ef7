// Package manager is the thread-safe entry point to a qmx database.
//
// A Manager guards a database.Database with a sync.RWMutex: queries and
// reports take the read lock, mutations the write lock. Records handed out
// by the manager are clones, so callers may keep and modify them freely.
//
// Records are created from builders, changed through updaters and found with
// queries:
//
//	id, err := m.CreateStudent(manager.NewStudentBuilder("Alice", 30).
//		Class(student.ClassTenTry).
//		Phone("13800138000"))
//
//	err = m.UpdateStudent(id, manager.NewStudentUpdater().
//		AddRing(9.5).
//		ClearPhone())
//
//	adults := m.SearchStudents(manager.NewStudentQuery().AgeRange(18, 99))
//
// An updater is an ordered list of (field, action) pairs. Fields that are not
// named keep their value; clearing an optional field always takes an
// explicit Clear call.
//
// With auto-save enabled every successful mutation persists the database
// before the write lock is released.
package manager
