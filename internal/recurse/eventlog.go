package recurse

// eventBlock is the initial capacity of a location's event log.
const eventBlock = 10

// eventLog is the append-only visit log of a single location. Merged visits
// update the most recently appended record in place.
type eventLog struct {
	records []Record
}

func newEventLog() *eventLog {
	return &eventLog{records: make([]Record, 0, eventBlock)}
}

// add appends r and returns its index.
func (l *eventLog) add(r Record) int {
	l.records = append(l.records, r)
	return len(l.records) - 1
}

func (l *eventLog) at(i int) *Record {
	return &l.records[i]
}

func (l *eventLog) len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}
