package inmemdb

import (
	"sync"

	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/directory"
)

type (
	// DB is a process-local store with the same tables as the relational one.
	DB struct {
		faculty  *facultyTable
		profiles *profileTable
	}

	facultyTable struct {
		t     map[string]directory.Faculty
		slots []directory.ScheduleSlot
		mutex sync.RWMutex
	}

	profileTable struct {
		t     map[string]academic.Profile
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		faculty:  &facultyTable{t: make(map[string]directory.Faculty)},
		profiles: &profileTable{t: make(map[string]academic.Profile)},
	}
}
