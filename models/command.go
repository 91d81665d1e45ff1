package models

import (
	"encoding/json"
	"time"
)

type CommandType string

const (
	CmdSearchNow  CommandType = "search_now"
	CmdBulkNow    CommandType = "bulk_now"
	CmdPause      CommandType = "pause"
	CmdResume     CommandType = "resume"
	CmdRunIndexer CommandType = "run_indexer"
)

type Command struct {
	ID          int64           `json:"id" db:"id"`
	Command     CommandType     `json:"command" db:"command"`
	Params      json.RawMessage `json:"params" db:"params"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
}

type CommandParams struct {
	Query      string   `json:"query,omitempty"`
	Platforms  []string `json:"platforms,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
}

func (c *Command) ParseParams() (CommandParams, error) {
	var params CommandParams
	if len(c.Params) == 0 {
		return params, nil
	}
	err := json.Unmarshal(c.Params, &params)
	return params, err
}
