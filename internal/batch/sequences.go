package batch

// Sequences is the explicit id allocator for batch serialization. The
// caller seeds it from the store's current high-water marks, passes it
// into ProcessBatch by value and receives the advanced allocator back.
// Keeping it a value instead of processor state keeps the processor
// reentrant.
type Sequences struct {
	OrderID     uint64
	OrderLineID uint64
	ReportID    uint64
}

// NextOrderID allocates the next order id.
func (s *Sequences) NextOrderID() uint64 {
	s.OrderID++
	return s.OrderID
}

// NextOrderLineID allocates the next order line id.
func (s *Sequences) NextOrderLineID() uint64 {
	s.OrderLineID++
	return s.OrderLineID
}

// NextReportID allocates the next report row id.
func (s *Sequences) NextReportID() uint64 {
	s.ReportID++
	return s.ReportID
}
