package scanner

import (
	"context"
)

const (
	// DefaultBatchSize is the number of records to collect before emitting a batch
	DefaultBatchSize = 1000
	// ChannelBufferSize is the buffer size for streaming channels
	ChannelBufferSize = 10
)

// Batch is a slice of the collection stream. Records and errors travel together
// so consumers see them in the order the walk produced them.
type Batch struct {
	Records []FileRecord
	Errors  []*PathError
	Bytes   int64 // total size of records in this batch
	Last    string
	Final   bool // true for the last batch of a stream
}

// BatchCollector groups records into batches for streaming
type BatchCollector struct {
	ctx       context.Context
	batchSize int
	current   *Batch
	channel   chan<- *Batch
}

// NewBatchCollector creates a new batch collector
func NewBatchCollector(ctx context.Context, batchSize int, channel chan<- *Batch) *BatchCollector {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchCollector{
		ctx:       ctx,
		batchSize: batchSize,
		current:   newBatch(batchSize),
		channel:   channel,
	}
}

func newBatch(size int) *Batch {
	return &Batch{Records: make([]FileRecord, 0, size)}
}

// Add adds a record to the current batch, emitting if the batch is full
func (bc *BatchCollector) Add(record FileRecord) {
	bc.current.Records = append(bc.current.Records, record)
	bc.current.Bytes += record.Size
	bc.current.Last = record.Path

	if len(bc.current.Records) >= bc.batchSize {
		bc.Flush()
	}
}

// AddError adds a recoverable error to the current batch
func (bc *BatchCollector) AddError(err *PathError) {
	bc.current.Errors = append(bc.current.Errors, err)
}

// Flush emits the current batch even if not full
func (bc *BatchCollector) Flush() {
	if len(bc.current.Records) == 0 && len(bc.current.Errors) == 0 {
		return
	}
	bc.send(bc.current)
	bc.current = newBatch(bc.batchSize)
}

// Finalize sends the remaining records marked as the final batch
func (bc *BatchCollector) Finalize() {
	bc.current.Final = true
	bc.send(bc.current)
	bc.current = newBatch(bc.batchSize)
}

func (bc *BatchCollector) send(batch *Batch) {
	select {
	case bc.channel <- batch:
	case <-bc.ctx.Done():
	}
}

// CollectAllBatches drains a batch channel into flat record and error lists
func CollectAllBatches(ctx context.Context, batches <-chan *Batch) ([]FileRecord, []*PathError, error) {
	var records []FileRecord
	var errs []*PathError

	for {
		select {
		case <-ctx.Done():
			return records, errs, ctx.Err()
		case batch, ok := <-batches:
			if !ok {
				return records, errs, ctx.Err()
			}
			records = append(records, batch.Records...)
			errs = append(errs, batch.Errors...)
			if batch.Final {
				return records, errs, nil
			}
		}
	}
}
