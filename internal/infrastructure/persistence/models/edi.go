package models

import (
	"time"

	"github.com/erp/edisync/internal/domain/edi"
	"github.com/google/uuid"
)

// SyncConfigModel is the persistence model for edi.SyncConfig
type SyncConfigModel struct {
	BaseModel
	Name     string       `gorm:"type:varchar(128);not null"`
	Active   bool         `gorm:"not null;default:true"`
	Sequence int          `gorm:"not null;default:10"`
	Host     string       `gorm:"type:varchar(255);not null"`
	Port     int          `gorm:"not null;default:0"`
	Protocol edi.Protocol `gorm:"type:varchar(10);not null;default:'sftp'"`
	Login    string       `gorm:"type:varchar(128);not null"`
	Password string       `gorm:"type:varchar(255)"`
	BasePath string       `gorm:"type:varchar(512);not null;default:'/'"`
	Note     string       `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SyncConfigModel) TableName() string {
	return "edi_configs"
}

// ToDomain converts the persistence model to a domain SyncConfig
func (m *SyncConfigModel) ToDomain() *edi.SyncConfig {
	return &edi.SyncConfig{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Active:     m.Active,
		Sequence:   m.Sequence,
		Host:       m.Host,
		Port:       m.Port,
		Protocol:   m.Protocol,
		Login:      m.Login,
		Password:   m.Password,
		BasePath:   m.BasePath,
		Note:       m.Note,
	}
}

// FromDomain populates the persistence model from a domain SyncConfig
func (m *SyncConfigModel) FromDomain(c *edi.SyncConfig) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.Active = c.Active
	m.Sequence = c.Sequence
	m.Host = c.Host
	m.Port = c.Port
	m.Protocol = c.Protocol
	m.Login = c.Login
	m.Password = c.Password
	m.BasePath = c.BasePath
	m.Note = c.Note
}

// SyncConfigModelFromDomain creates a persistence model from a domain SyncConfig
func SyncConfigModelFromDomain(c *edi.SyncConfig) *SyncConfigModel {
	m := &SyncConfigModel{}
	m.FromDomain(c)
	return m
}

// DocumentTypeModel is the persistence model for edi.DocumentType
type DocumentTypeModel struct {
	BaseModel
	Name   string           `gorm:"type:varchar(128);not null"`
	Active bool             `gorm:"not null;default:true"`
	OpType edi.OpType       `gorm:"type:varchar(10);not null"`
	Code   edi.DocumentCode `gorm:"type:varchar(128);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (DocumentTypeModel) TableName() string {
	return "edi_document_types"
}

// ToDomain converts the persistence model to a domain DocumentType
func (m *DocumentTypeModel) ToDomain() *edi.DocumentType {
	return &edi.DocumentType{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Active:     m.Active,
		OpType:     m.OpType,
		Code:       m.Code,
	}
}

// FromDomain populates the persistence model from a domain DocumentType
func (m *DocumentTypeModel) FromDomain(d *edi.DocumentType) {
	m.FromDomainBaseEntity(d.BaseEntity)
	m.Name = d.Name
	m.Active = d.Active
	m.OpType = d.OpType
	m.Code = d.Code
}

// SyncActionModel is the persistence model for edi.SyncAction
type SyncActionModel struct {
	BaseModel
	ConfigID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	Config         SyncConfigModel   `gorm:"foreignKey:ConfigID"`
	DocumentTypeID uuid.UUID         `gorm:"type:uuid;not null;index"`
	DocumentType   DocumentTypeModel `gorm:"foreignKey:DocumentTypeID"`
	Active         bool              `gorm:"not null;default:true"`
	Sequence       int               `gorm:"not null;default:10"`
	DirPath        string            `gorm:"type:varchar(512);not null;default:'/'"`
	MoveDirPath    string            `gorm:"type:varchar(512);not null;default:'/'"`
	FileExpr       string            `gorm:"type:varchar(255);not null;default:'orders.csv'"`
	MaxFiles       int               `gorm:"not null;default:5"`
	LastSyncDate   *time.Time
}

// TableName returns the table name for GORM
func (SyncActionModel) TableName() string {
	return "edi_sync_actions"
}

// ToDomain converts the persistence model to a domain SyncAction.
// Config and DocumentType must have been preloaded.
func (m *SyncActionModel) ToDomain() *edi.SyncAction {
	action := &edi.SyncAction{
		BaseEntity:   m.BaseModel.ToDomain(),
		ConfigID:     m.ConfigID,
		DocumentType: *m.DocumentType.ToDomain(),
		Active:       m.Active,
		Sequence:     m.Sequence,
		DirPath:      m.DirPath,
		MoveDirPath:  m.MoveDirPath,
		FileExpr:     m.FileExpr,
		MaxFiles:     m.MaxFiles,
		LastSyncDate: m.LastSyncDate,
	}
	if m.Config.ID != uuid.Nil {
		action.Config = m.Config.ToDomain()
	}
	return action
}

// FromDomain populates the persistence model from a domain SyncAction.
// Associations are referenced by id only.
func (m *SyncActionModel) FromDomain(a *edi.SyncAction) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.ConfigID = a.ConfigID
	m.DocumentTypeID = a.DocumentType.ID
	m.Active = a.Active
	m.Sequence = a.Sequence
	m.DirPath = a.DirPath
	m.MoveDirPath = a.MoveDirPath
	m.FileExpr = a.FileExpr
	m.MaxFiles = a.MaxFiles
	m.LastSyncDate = a.LastSyncDate
}

// LogEntryModel is the persistence model for edi.LogEntry
type LogEntryModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	Title     string     `gorm:"type:varchar(255);not null"`
	Body      string     `gorm:"type:text"`
	ActionID  *uuid.UUID `gorm:"type:uuid;index"`
	ConfigID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LogEntryModel) TableName() string {
	return "edi_logs"
}

// ToDomain converts the persistence model to a domain LogEntry
func (m *LogEntryModel) ToDomain() *edi.LogEntry {
	return &edi.LogEntry{
		ID:        m.ID,
		Title:     m.Title,
		Body:      m.Body,
		ActionID:  m.ActionID,
		ConfigID:  m.ConfigID,
		CreatedAt: m.CreatedAt,
	}
}

// LogEntryModelFromDomain creates a persistence model from a domain LogEntry
func LogEntryModelFromDomain(e *edi.LogEntry) *LogEntryModel {
	return &LogEntryModel{
		ID:        e.ID,
		Title:     e.Title,
		Body:      e.Body,
		ActionID:  e.ActionID,
		ConfigID:  e.ConfigID,
		CreatedAt: e.CreatedAt,
	}
}
