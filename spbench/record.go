package spbench

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Record is one measured run.
type Record struct {
	Scenario   string
	Workers    int
	Vars       int
	Contention bool
	Hits       uint64
	RunMS      int32
}

// Record table field slots; vtable offset is 4 + 2*slot.
const (
	recordSlotScenario = iota
	recordSlotWorkers
	recordSlotVars
	recordSlotContention
	recordSlotHits
	recordSlotRunMS
	recordSlotCount
)

// EncodeRecords serializes records as a flatbuffer: a root table whose
// single field is the vector of record tables.
func EncodeRecords(records []Record) []byte {
	builder := flatbuffers.NewBuilder(1024)

	offsets := make([]flatbuffers.UOffsetT, len(records))
	for i := range records {
		record := &records[i]
		scenario := builder.CreateString(record.Scenario)

		builder.StartObject(recordSlotCount)
		builder.PrependUOffsetTSlot(recordSlotScenario, scenario, 0)
		builder.PrependInt32Slot(recordSlotWorkers, int32(record.Workers), 0)
		builder.PrependInt32Slot(recordSlotVars, int32(record.Vars), 0)
		builder.PrependBoolSlot(recordSlotContention, record.Contention, false)
		builder.PrependUint64Slot(recordSlotHits, record.Hits, 0)
		builder.PrependInt32Slot(recordSlotRunMS, record.RunMS, 0)
		offsets[i] = builder.EndObject()
	}

	builder.StartVector(flatbuffers.SizeUOffsetT, len(records), flatbuffers.SizeUOffsetT)
	for i := len(records) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	vector := builder.EndVector(len(records))

	builder.StartObject(1)
	builder.PrependUOffsetTSlot(0, vector, 0)
	root := builder.EndObject()

	builder.Finish(root)
	return builder.FinishedBytes()
}

// DecodeRecords walks the buffer back into records.
func DecodeRecords(buf []byte) []Record {
	var root flatbuffers.Table
	root.Bytes = buf
	root.Pos = flatbuffers.GetUOffsetT(buf)

	vectorField := flatbuffers.UOffsetT(root.Offset(4))
	if vectorField == 0 {
		return nil
	}

	count := root.VectorLen(vectorField)
	records := make([]Record, 0, count)

	vector := root.Vector(vectorField)
	for i := 0; i < count; i++ {
		var tab flatbuffers.Table
		tab.Bytes = buf
		tab.Pos = root.Indirect(vector + flatbuffers.UOffsetT(i*flatbuffers.SizeUOffsetT))

		var record Record
		if o := flatbuffers.UOffsetT(tab.Offset(4 + 2*recordSlotScenario)); o != 0 {
			record.Scenario = string(tab.ByteVector(o + tab.Pos))
		}
		if o := flatbuffers.UOffsetT(tab.Offset(4 + 2*recordSlotWorkers)); o != 0 {
			record.Workers = int(tab.GetInt32(o + tab.Pos))
		}
		if o := flatbuffers.UOffsetT(tab.Offset(4 + 2*recordSlotVars)); o != 0 {
			record.Vars = int(tab.GetInt32(o + tab.Pos))
		}
		if o := flatbuffers.UOffsetT(tab.Offset(4 + 2*recordSlotContention)); o != 0 {
			record.Contention = tab.GetBool(o + tab.Pos)
		}
		if o := flatbuffers.UOffsetT(tab.Offset(4 + 2*recordSlotHits)); o != 0 {
			record.Hits = tab.GetUint64(o + tab.Pos)
		}
		if o := flatbuffers.UOffsetT(tab.Offset(4 + 2*recordSlotRunMS)); o != 0 {
			record.RunMS = tab.GetInt32(o + tab.Pos)
		}
		records = append(records, record)
	}

	return records
}
