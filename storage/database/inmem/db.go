package inmemdb

import (
	"sync"

	"github.com/trezcool/quizadmin/core/notification"
	"github.com/trezcool/quizadmin/core/user"
)

type (
	// DB is a process-local store used by tests and TEST mode.
	DB struct {
		user     *userTable
		template *templateTable
		session  *sessionTable
		log      *logTable
	}

	userTable struct {
		mutex sync.RWMutex
		pk    int
		table map[int]*user.User
	}

	templateTable struct {
		mutex sync.RWMutex
		pk    int
		table map[string]*notification.Template // {kind_lang: *Template}
	}

	sessionTable struct {
		mutex sync.RWMutex
		table map[int]*Session
	}

	logTable struct {
		mutex sync.RWMutex
		rows  []notification.LogEntry
	}
)

func Open() *DB {
	return &DB{
		user:     &userTable{table: make(map[int]*user.User)},
		template: &templateTable{table: make(map[string]*notification.Template)},
		session:  &sessionTable{table: make(map[int]*Session)},
		log:      &logTable{},
	}
}
