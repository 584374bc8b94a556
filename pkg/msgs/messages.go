package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/sent.go/pkg/framework"
	"github.com/robotalks/sent.go/pkg/sent"
)

// FrameEvent carries a CRC-valid fast channel frame.
type FrameEvent struct {
	Channel     string `protobuf:"bytes,1,opt,name=channel,proto3" json:"channel,omitempty"`
	Frame       uint32 `protobuf:"varint,2,opt,name=frame,proto3" json:"frame,omitempty"`
	Status      uint32 `protobuf:"varint,3,opt,name=status,proto3" json:"status,omitempty"`
	A           uint32 `protobuf:"varint,4,opt,name=a,proto3" json:"a,omitempty"`
	B           uint32 `protobuf:"varint,5,opt,name=b,proto3" json:"b,omitempty"`
	TickPerUnit uint32 `protobuf:"varint,6,opt,name=tick_per_unit,proto3" json:"tick_per_unit,omitempty"`
	Timestamp   int64  `protobuf:"varint,7,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// NewFrameEvent creates a FrameEvent.
func NewFrameEvent(channel string, f sent.Frame, tickPerUnit uint32, at time.Time) *FrameEvent {
	s := f.Signals()
	return &FrameEvent{
		Channel:     channel,
		Frame:       uint32(f),
		Status:      uint32(s.Status),
		A:           uint32(s.A),
		B:           uint32(s.B),
		TickPerUnit: tickPerUnit,
		Timestamp:   at.UnixNano(),
	}
}

// NewMessage implements Message.
func (m *FrameEvent) NewMessage() fx.Message { return &FrameEvent{} }

// TypeID implements SerializableMessage.
func (m *FrameEvent) TypeID() uint32 { return FrameEventTypeID }

// Serializable implements SerializableMessage.
func (m *FrameEvent) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FrameEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FrameEvent) Reset() { *m = FrameEvent{} }

// String implements proto.Message.
func (m *FrameEvent) String() string { return proto.CompactTextString(m) }

// SyncEvent reports a channel gaining or losing frame sync.
type SyncEvent struct {
	Channel string `protobuf:"bytes,1,opt,name=channel,proto3" json:"channel,omitempty"`
	Synced  bool   `protobuf:"varint,2,opt,name=synced,proto3" json:"synced,omitempty"`
	State   string `protobuf:"bytes,3,opt,name=state,proto3" json:"state,omitempty"`
}

// NewMessage implements Message.
func (m *SyncEvent) NewMessage() fx.Message { return &SyncEvent{} }

// TypeID implements SerializableMessage.
func (m *SyncEvent) TypeID() uint32 { return SyncEventTypeID }

// Serializable implements SerializableMessage.
func (m *SyncEvent) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SyncEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SyncEvent) Reset() { *m = SyncEvent{} }

// String implements proto.Message.
func (m *SyncEvent) String() string { return proto.CompactTextString(m) }

// StatsReport is the periodic counter report of a channel.
type StatsReport struct {
	Channel          string  `protobuf:"bytes,1,opt,name=channel,proto3" json:"channel,omitempty"`
	State            string  `protobuf:"bytes,2,opt,name=state,proto3" json:"state,omitempty"`
	TickPerUnit      uint32  `protobuf:"varint,3,opt,name=tick_per_unit,proto3" json:"tick_per_unit,omitempty"`
	TickNanos        uint32  `protobuf:"varint,4,opt,name=tick_nanos,proto3" json:"tick_nanos,omitempty"`
	HWOverflow       uint32  `protobuf:"varint,5,opt,name=hw_overflow,proto3" json:"hw_overflow,omitempty"`
	ShortIntervalErr uint32  `protobuf:"varint,6,opt,name=short_interval_err,proto3" json:"short_interval_err,omitempty"`
	LongIntervalErr  uint32  `protobuf:"varint,7,opt,name=long_interval_err,proto3" json:"long_interval_err,omitempty"`
	SyncErr          uint32  `protobuf:"varint,8,opt,name=sync_err,proto3" json:"sync_err,omitempty"`
	CRCErr           uint32  `protobuf:"varint,9,opt,name=crc_err,proto3" json:"crc_err,omitempty"`
	Frames           uint32  `protobuf:"varint,10,opt,name=frames,proto3" json:"frames,omitempty"`
	Pauses           uint32  `protobuf:"varint,11,opt,name=pauses,proto3" json:"pauses,omitempty"`
	Restarts         uint32  `protobuf:"varint,12,opt,name=restarts,proto3" json:"restarts,omitempty"`
	SlowChannel12    uint32  `protobuf:"varint,13,opt,name=slow_channel12,proto3" json:"slow_channel12,omitempty"`
	SlowChannel16    uint32  `protobuf:"varint,14,opt,name=slow_channel16,proto3" json:"slow_channel16,omitempty"`
	SlowCRCErr       uint32  `protobuf:"varint,15,opt,name=slow_crc_err,proto3" json:"slow_crc_err,omitempty"`
	SlowTableFull    uint32  `protobuf:"varint,16,opt,name=slow_table_full,proto3" json:"slow_table_full,omitempty"`
	ErrorRate        float64 `protobuf:"fixed64,17,opt,name=error_rate,proto3" json:"error_rate,omitempty"`
}

// NewStatsReport creates a StatsReport. clockHz converts the tick length
// to nanoseconds and may be 0 if the capture clock is unknown.
func NewStatsReport(channel string, state sent.State, tickPerUnit uint32, clockHz uint32, stats sent.Statistics) *StatsReport {
	m := &StatsReport{
		Channel:          channel,
		State:            state.String(),
		TickPerUnit:      tickPerUnit,
		HWOverflow:       stats.HWOverflow,
		ShortIntervalErr: stats.ShortIntervalErr,
		LongIntervalErr:  stats.LongIntervalErr,
		SyncErr:          stats.SyncErr,
		CRCErr:           stats.CRCErr,
		Frames:           stats.Frames,
		Pauses:           stats.Pauses,
		Restarts:         stats.Restarts,
		SlowChannel12:    stats.SlowChannel12,
		SlowChannel16:    stats.SlowChannel16,
		SlowCRCErr:       stats.SlowCRCErr,
		SlowTableFull:    stats.SlowTableFull,
		ErrorRate:        stats.ErrorRate(),
	}
	if clockHz > 0 {
		m.TickNanos = uint32(uint64(tickPerUnit) * uint64(time.Second) / uint64(clockHz))
	}
	return m
}

// NewMessage implements Message.
func (m *StatsReport) NewMessage() fx.Message { return &StatsReport{} }

// TypeID implements SerializableMessage.
func (m *StatsReport) TypeID() uint32 { return StatsReportTypeID }

// Serializable implements SerializableMessage.
func (m *StatsReport) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatsReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatsReport) Reset() { *m = StatsReport{} }

// String implements proto.Message.
func (m *StatsReport) String() string { return proto.CompactTextString(m) }

// SlowChannelEntry is one stored slow channel value.
type SlowChannelEntry struct {
	ID    uint32 `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Value uint32 `protobuf:"varint,2,opt,name=value,proto3" json:"value,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *SlowChannelEntry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SlowChannelEntry) Reset() { *m = SlowChannelEntry{} }

// String implements proto.Message.
func (m *SlowChannelEntry) String() string { return proto.CompactTextString(m) }

// SlowChannelReport lists the slow channel table of a channel.
type SlowChannelReport struct {
	Channel string              `protobuf:"bytes,1,opt,name=channel,proto3" json:"channel,omitempty"`
	Entries []*SlowChannelEntry `protobuf:"bytes,2,rep,name=entries,proto3" json:"entries,omitempty"`
}

// Add appends an entry.
func (m *SlowChannelReport) Add(id uint8, value uint16) *SlowChannelReport {
	m.Entries = append(m.Entries, &SlowChannelEntry{ID: uint32(id), Value: uint32(value)})
	return m
}

// NewMessage implements Message.
func (m *SlowChannelReport) NewMessage() fx.Message { return &SlowChannelReport{} }

// TypeID implements SerializableMessage.
func (m *SlowChannelReport) TypeID() uint32 { return SlowChannelReportTypeID }

// Serializable implements SerializableMessage.
func (m *SlowChannelReport) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SlowChannelReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SlowChannelReport) Reset() { *m = SlowChannelReport{} }

// String implements proto.Message.
func (m *SlowChannelReport) String() string { return proto.CompactTextString(m) }

// ResetCommand asks a node to reset the decoder of a channel.
type ResetCommand struct {
	Channel string `protobuf:"bytes,1,opt,name=channel,proto3" json:"channel,omitempty"`
}

// NewMessage implements Message.
func (m *ResetCommand) NewMessage() fx.Message { return &ResetCommand{} }

// TypeID implements SerializableMessage.
func (m *ResetCommand) TypeID() uint32 { return ResetCommandTypeID }

// Serializable implements SerializableMessage.
func (m *ResetCommand) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ResetCommand) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ResetCommand) Reset() { *m = ResetCommand{} }

// String implements proto.Message.
func (m *ResetCommand) String() string { return proto.CompactTextString(m) }

// GroupSENT is the group of all decoder messages.
const GroupSENT uint32 = 0x00100000

// TypeIDs
const (
	FrameEventTypeID        uint32 = GroupSENT | TypeIDKindEvent | 0x0000
	SyncEventTypeID         uint32 = GroupSENT | TypeIDKindEvent | 0x0001
	StatsReportTypeID       uint32 = GroupSENT | TypeIDKindEvent | 0x0002
	SlowChannelReportTypeID uint32 = GroupSENT | TypeIDKindEvent | 0x0003
	ResetCommandTypeID      uint32 = GroupSENT | 0x0000
)
