package models

import "time"

// ClientSample is one client-count reading reported for a data source.
type ClientSample struct {
	ID           int64     `gorm:"column:id;primaryKey" json:"id"`
	TS           time.Time `gorm:"column:ts;not null;uniqueIndex:idx_data_source_data_ts_source,priority:1" json:"ts"`
	DataSourceID int       `gorm:"column:data_source_id;not null;uniqueIndex:idx_data_source_data_ts_source,priority:2" json:"data_source_id"`
	NoOfClients  int       `gorm:"column:no_of_clients;not null" json:"no_of_clients"`
}

func (ClientSample) TableName() string { return "data_source_data" }
