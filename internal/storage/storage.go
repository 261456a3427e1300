// /internal/storage/storage.go
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abrokecube/ravenfall-channelbot-sub000/datastore"
)

const commandHistoryLimit int = 20

type Storage struct {
	ds *datastore.DataStore
}

type CommandHistoryRecord struct {
	RoomID   string    `json:"room_id"`
	RoomName string    `json:"room_name"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Command  string    `json:"command"`
	Param    string    `json:"param"`
	Ok       bool      `json:"ok"`
	Datetime time.Time `json:"datetime"`
}

type Record struct {
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
	Prefixes            []string               `json:"prefixes"`
	Counters            map[string]int         `json:"counters"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Helper function to get or create a Record for a room
func (s *Storage) getOrCreateRoomRecord(roomKey string) (*Record, error) {
	data, exists := s.ds.Get(roomKey)
	if !exists {
		newRecord := &Record{
			CommandsHistoryList: []CommandHistoryRecord{},
			Counters:            map[string]int{},
		}
		s.ds.Add(roomKey, newRecord)
		return newRecord, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record Record
	err = json.Unmarshal(jsonData, &record)
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}

	if record.Counters == nil {
		record.Counters = map[string]int{}
	}

	if len(record.CommandsHistoryList) > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[len(record.CommandsHistoryList)-commandHistoryLimit:]
	}

	return &record, nil
}

// AppendCommandToHistory appends a command history record for a room
func (s *Storage) AppendCommandToHistory(roomKey string, command CommandHistoryRecord) error {
	record, err := s.getOrCreateRoomRecord(roomKey)
	if err != nil {
		return err
	}

	record.CommandsHistoryList = append(record.CommandsHistoryList, command)
	record.Counters[command.Command]++
	s.ds.Add(roomKey, record)
	return nil
}

func (s *Storage) FetchCommandHistory(roomKey string) ([]CommandHistoryRecord, error) {
	record, err := s.getOrCreateRoomRecord(roomKey)
	if err != nil {
		return nil, err
	}

	return record.CommandsHistoryList, nil
}

func (s *Storage) FetchCommandCounters(roomKey string) (map[string]int, error) {
	record, err := s.getOrCreateRoomRecord(roomKey)
	if err != nil {
		return nil, err
	}

	return record.Counters, nil
}

// TrimHistories re-bounds the command history of every room record.
// getOrCreateRoomRecord already trims on read; this keeps the file itself
// from growing between reads.
func (s *Storage) TrimHistories() error {
	for _, key := range s.ds.Keys() {
		record, err := s.getOrCreateRoomRecord(key)
		if err != nil {
			return err
		}
		s.ds.Add(key, record)
	}
	return nil
}

// SetPrefixes replaces the accepted command prefixes for a room. An empty
// list restores the default prefixes.
func (s *Storage) SetPrefixes(roomKey string, prefixes []string) error {
	record, err := s.getOrCreateRoomRecord(roomKey)
	if err != nil {
		return err
	}

	record.Prefixes = prefixes
	s.ds.Add(roomKey, record)
	return nil
}

func (s *Storage) GetPrefixes(roomKey string) ([]string, error) {
	record, err := s.getOrCreateRoomRecord(roomKey)
	if err != nil {
		return nil, err
	}

	return record.Prefixes, nil
}
