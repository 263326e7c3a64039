// Package scte35 implements the parts of SCTE-35 needed for ad-break
// signaling in MPDs according to SCTE-214-1 from 2022.
package scte35

import (
	"encoding/base64"
	"fmt"

	"github.com/Comcast/gots/v2"
	gotsscte35 "github.com/Comcast/gots/v2/scte35"
)

const (
	// SchemeIDURIBin identifies EventStreams carrying base64 binary
	// splice_info_sections in their Event message data.
	SchemeIDURIBin = "urn:scte:scte35:2013:bin"
	// SchemeIDURIXML identifies EventStreams carrying SCTE-35 XML.
	SchemeIDURIXML = "urn:scte:scte35:2013:xml"
	// SchemeIDURIPrefix matches any SCTE-35 EventStream scheme.
	SchemeIDURIPrefix = "urn:scte:scte35:"
)

type SpliceInsertParams struct {
	PtsTime                    uint64
	Duration                   uint64
	SpliceEventID              uint32
	Tier                       uint16
	UniqueProgramID            uint16
	AvailNum                   uint8
	AvailsExpected             uint8
	SpliceEventCancelIndicator bool
	OutOfNetworkIndicator      bool
	SpliceImmediateFlag        bool
	AutoReturn                 bool
}

// CreateSpliceInsertPayload creates a SCTE-35 splice_info_section including CRC.
func CreateSpliceInsertPayload(p SpliceInsertParams) []byte {
	s := gotsscte35.CreateSCTE35()
	s.SetTier(uint16(p.Tier))
	cmd := gotsscte35.CreateSpliceInsertCommand()
	cmd.SetUniqueProgramId(p.UniqueProgramID)
	cmd.SetEventID(p.SpliceEventID)
	cmd.SetAvailNum(p.AvailNum)
	cmd.SetAvailsExpected(p.AvailsExpected)
	cmd.SetIsEventCanceled(p.SpliceEventCancelIndicator)
	if p.Duration != 0 {
		cmd.SetHasDuration(true)
		cmd.SetDuration(gots.PTS(p.Duration))
		cmd.SetIsAutoReturn(p.AutoReturn)
	}
	cmd.SetHasPTS(true)
	cmd.SetPTS(gots.PTS(p.PtsTime))
	cmd.SetIsOut(p.OutOfNetworkIndicator)
	cmd.SetSpliceImmediate(p.SpliceImmediateFlag)
	s.SetCommandInfo(cmd)
	return s.UpdateData()
}

// CreateSpliceInsertBase64 creates a splice_info_section and returns it
// base64-encoded, ready for an MPD Event messageData attribute.
func CreateSpliceInsertBase64(p SpliceInsertParams) string {
	return base64.StdEncoding.EncodeToString(CreateSpliceInsertPayload(p))
}

// spliceInfoTableID is the table_id a splice_info_section starts with.
const spliceInfoTableID = 0xfc

// BreakDurationSeconds parses a base64 splice_info_section and returns
// the break duration in seconds of its splice_insert command.
// ok is false when the payload has no splice_insert with a duration.
func BreakDurationSeconds(b64 string) (dur float64, ok bool, err error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return 0, false, fmt.Errorf("decode base64 splice payload: %w", err)
	}
	// gots parses from the PSI pointer_field, while MPD message data
	// carries the bare section starting at the table_id.
	if len(data) > 0 && data[0] == spliceInfoTableID {
		data = append([]byte{0x00}, data...)
	}
	s, err := gotsscte35.NewSCTE35(data)
	if err != nil {
		return 0, false, fmt.Errorf("parse splice_info_section: %w", err)
	}
	cmd, isInsert := s.CommandInfo().(gotsscte35.SpliceInsertCommand)
	if !isInsert || !cmd.HasDuration() {
		return 0, false, nil
	}
	return float64(cmd.Duration()) / 90000.0, true, nil
}
