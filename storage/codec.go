package storage

import (
	"time"

	mus "github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/eventsift/core"
)

// Ledger value codecs. Field order is the wire order; append new fields at
// the end of a struct's sequence.
var (
	PlatformMUS       = platformMUS{}
	VerdictMUS        = verdictMUS{}
	VerdictEntryMUS   = verdictEntryMUS{}
	PlatformCountsMUS = platformCountsMUS{}
	RunSummaryMUS     = runSummaryMUS{}

	// Times are stored as Unix microseconds and decoded in UTC.
	timeMUS = unixMicroMUS{}

	platformCountsMapMUS = ord.NewMapSer[core.Platform, PlatformCounts](PlatformMUS, PlatformCountsMUS)
	stringSliceMUS       = ord.NewSliceSer[string](ord.String)
)

var (
	_ mus.Serializer[core.Platform]  = PlatformMUS
	_ mus.Serializer[core.Verdict]   = VerdictMUS
	_ mus.Serializer[VerdictEntry]   = VerdictEntryMUS
	_ mus.Serializer[PlatformCounts] = PlatformCountsMUS
	_ mus.Serializer[RunSummary]     = RunSummaryMUS
)

type platformMUS struct{}

func (platformMUS) Marshal(v core.Platform, bs []byte) (n int) {
	return ord.String.Marshal(string(v), bs)
}

func (platformMUS) Unmarshal(bs []byte) (v core.Platform, n int, err error) {
	s, n, err := ord.String.Unmarshal(bs)
	return core.Platform(s), n, err
}

func (platformMUS) Size(v core.Platform) (size int) {
	return ord.String.Size(string(v))
}

func (platformMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

type unixMicroMUS struct{}

func (unixMicroMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (unixMicroMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (unixMicroMUS) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

func (unixMicroMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

type verdictMUS struct{}

func (verdictMUS) Marshal(v core.Verdict, bs []byte) (n int) {
	n = ord.Bool.Marshal(v.IsRelevant, bs)
	n += raw.Float64.Marshal(v.Score, bs[n:])
	return n + ord.String.Marshal(v.Reason, bs[n:])
}

func (verdictMUS) Unmarshal(bs []byte) (v core.Verdict, n int, err error) {
	v.IsRelevant, n, err = ord.Bool.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Score, n1, err = raw.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Reason, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (verdictMUS) Size(v core.Verdict) (size int) {
	size = ord.Bool.Size(v.IsRelevant)
	size += raw.Float64.Size(v.Score)
	return size + ord.String.Size(v.Reason)
}

func (verdictMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.Bool.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = raw.Float64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

type verdictEntryMUS struct{}

func (verdictEntryMUS) Marshal(v VerdictEntry, bs []byte) (n int) {
	n = PlatformMUS.Marshal(v.Platform, bs)
	n += ord.String.Marshal(v.ID, bs[n:])
	n += raw.Uint64.Marshal(v.ContentHash, bs[n:])
	return n + VerdictMUS.Marshal(v.Verdict, bs[n:])
}

func (verdictEntryMUS) Unmarshal(bs []byte) (v VerdictEntry, n int, err error) {
	v.Platform, n, err = PlatformMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.ID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ContentHash, n1, err = raw.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Verdict, n1, err = VerdictMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (verdictEntryMUS) Size(v VerdictEntry) (size int) {
	size = PlatformMUS.Size(v.Platform)
	size += ord.String.Size(v.ID)
	size += raw.Uint64.Size(v.ContentHash)
	return size + VerdictMUS.Size(v.Verdict)
}

func (verdictEntryMUS) Skip(bs []byte) (n int, err error) {
	n, err = PlatformMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.Uint64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = VerdictMUS.Skip(bs[n:])
	n += n1
	return
}

type platformCountsMUS struct{}

func (platformCountsMUS) Marshal(v PlatformCounts, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Loaded, bs)
	n += varint.Int.Marshal(v.Relevant, bs[n:])
	return n + varint.Int.Marshal(v.Failed, bs[n:])
}

func (platformCountsMUS) Unmarshal(bs []byte) (v PlatformCounts, n int, err error) {
	v.Loaded, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Relevant, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Failed, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (platformCountsMUS) Size(v PlatformCounts) (size int) {
	size = varint.Int.Size(v.Loaded)
	size += varint.Int.Size(v.Relevant)
	return size + varint.Int.Size(v.Failed)
}

func (platformCountsMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for range 3 {
		n1, err = varint.Int.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

type runSummaryMUS struct{}

func (runSummaryMUS) Marshal(v RunSummary, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Event, bs[n:])
	n += timeMUS.Marshal(v.StartedAt, bs[n:])
	n += timeMUS.Marshal(v.FinishedAt, bs[n:])
	n += ord.Bool.Marshal(v.FilterEnabled, bs[n:])
	n += platformCountsMapMUS.Marshal(v.Platforms, bs[n:])
	n += varint.Int.Marshal(v.Relevant, bs[n:])
	n += varint.Int.Marshal(v.DetailUpdated, bs[n:])
	n += ord.String.Marshal(v.Snapshot, bs[n:])
	return n + stringSliceMUS.Marshal(v.Errors, bs[n:])
}

func (runSummaryMUS) Unmarshal(bs []byte) (v RunSummary, n int, err error) {
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Event, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.StartedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.FinishedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.FilterEnabled, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Platforms, n1, err = platformCountsMapMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Relevant, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DetailUpdated, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Snapshot, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Errors, n1, err = stringSliceMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (runSummaryMUS) Size(v RunSummary) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.Event)
	size += timeMUS.Size(v.StartedAt)
	size += timeMUS.Size(v.FinishedAt)
	size += ord.Bool.Size(v.FilterEnabled)
	size += platformCountsMapMUS.Size(v.Platforms)
	size += varint.Int.Size(v.Relevant)
	size += varint.Int.Size(v.DetailUpdated)
	size += ord.String.Size(v.Snapshot)
	return size + stringSliceMUS.Size(v.Errors)
}

func (runSummaryMUS) Skip(bs []byte) (n int, err error) {
	skips := []func([]byte) (int, error){
		ord.String.Skip,
		ord.String.Skip,
		timeMUS.Skip,
		timeMUS.Skip,
		ord.Bool.Skip,
		platformCountsMapMUS.Skip,
		varint.Int.Skip,
		varint.Int.Skip,
		ord.String.Skip,
		stringSliceMUS.Skip,
	}
	var n1 int
	for _, skip := range skips {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
