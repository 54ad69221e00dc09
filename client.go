package qrs_client

import (
	"github.com/qrs-tools/go-qrs-client/core"
	"github.com/qrs-tools/go-qrs-client/rest"
	"github.com/qrs-tools/go-qrs-client/resources"
)

type (
	QRSConfig                 = core.QRSConfig
	Params                    = core.Params
	Record                    = core.Record
	RecordSet                 = core.RecordSet
	Renderable                = core.Renderable
	QRSRest                   = rest.QRSRest
	QRSResourceAPI            = core.QRSResourceAPI
	QRSResourceAPIWithContext = core.QRSResourceAPIWithContext
	UpdateOptions             = resources.UpdateOptions
	StreamCreate              = resources.StreamCreate
	StreamUpdate              = resources.StreamUpdate
	ReloadTaskCreate          = resources.ReloadTaskCreate
	UpdateOperation           = resources.UpdateOperation
	CommonPropertiesResolver  = resources.CommonPropertiesResolver
	TableRequest              = resources.TableRequest
	TableColumn               = resources.TableColumn
	ValidationError           = core.ValidationError
	NotFoundError             = core.NotFoundError
	AmbiguousReferenceError   = core.AmbiguousReferenceError
	ChoiceValueError          = core.ChoiceValueError
	ApiError                  = core.ApiError
	ExecutionFailedError      = resources.ExecutionFailedError
	WaitAPIConditionConfig    = core.WaitAPIConditionConfig
	RequestInterceptor        = core.RequestInterceptor
)

const (
	OperationSet    = resources.OperationSet
	OperationAdd    = resources.OperationAdd
	OperationRemove = resources.OperationRemove

	ColumnProperty = resources.ColumnProperty
	ColumnFunction = resources.ColumnFunction
	ColumnList     = resources.ColumnList
)

// NewQRSRest validates config and returns a client with every resource wired to one session.
func NewQRSRest(config *QRSConfig) (*QRSRest, error) {
	return rest.NewQRSRest(config)
}

// LoadConfig reads a TOML config file. QRS_HOST, QRS_PORT and QRS_VIRTUAL_PROXY override it.
func LoadConfig(path string) (*QRSConfig, error) {
	return core.LoadConfigFile(path)
}
