package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quotaflow/quota-engine/core"
)

// BackupVersion is written into every backup document.
const BackupVersion = "1.0"

// Document is the JSON backup envelope. The data block mirrors the persisted
// collections; the owner registry is intentionally absent and is reseeded
// from supplier rows on import.
type Document struct {
	Version   string         `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Quarter   core.QuarterID `json:"quarter"`
	Data      *Data          `json:"data"`
}

// Data holds all live and archived collections.
type Data struct {
	Stores            []core.Store                     `json:"stores"`
	Suppliers         []core.Supplier                  `json:"suppliers"`
	Invoices          []core.Invoice                   `json:"invoices"`
	Payments          []core.Payment                   `json:"payments"`
	QuarterData       map[core.QuarterID]core.Snapshot `json:"quarterData"`
	AvailableQuarters []core.QuarterID                 `json:"availableQuarters"`
}

// EncodeBackup serializes the full state into a backup document.
func EncodeBackup(state core.State, now time.Time) ([]byte, error) {
	doc := Document{
		Version:   BackupVersion,
		Timestamp: now.UTC(),
		Quarter:   state.CurrentQuarter,
		Data: &Data{
			Stores:            state.Stores,
			Suppliers:         state.Suppliers,
			Invoices:          state.Invoices,
			Payments:          state.Payments,
			QuarterData:       state.Archive,
			AvailableQuarters: state.AvailableQuarters,
		},
	}
	return json.MarshalIndent(doc, "", "  ")
}

// BackupName returns the download filename for a backup taken at now.
func BackupName(now time.Time) string {
	return fmt.Sprintf("系统备份_所有季度_%s.json", now.UTC().Format("2006-01-02"))
}

// DecodeBackup parses a backup document into a restorable state. Documents
// missing version or data are rejected with ErrMalformedBackup; nothing is
// applied in that case. An absent quarter label comes back empty and the
// restore keeps the dataset's current one.
func DecodeBackup(raw []byte) (core.State, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return core.State{}, fmt.Errorf("%w: %v", core.ErrMalformedBackup, err)
	}
	if doc.Version == "" || doc.Data == nil {
		return core.State{}, fmt.Errorf("%w: missing version or data block", core.ErrMalformedBackup)
	}
	return core.State{
		Stores:            doc.Data.Stores,
		Suppliers:         doc.Data.Suppliers,
		Invoices:          doc.Data.Invoices,
		Payments:          doc.Data.Payments,
		CurrentQuarter:    doc.Quarter,
		Archive:           doc.Data.QuarterData,
		AvailableQuarters: doc.Data.AvailableQuarters,
	}, nil
}
