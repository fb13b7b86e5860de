package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeConfigValidation Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"

	CodeAPIError        Code = "API_ERROR"
	CodeAPITimeout      Code = "API_TIMEOUT"
	CodeAPIPartialError Code = "API_PARTIAL_ERROR"

	CodeDesiredReadError  Code = "DESIRED_STATE_READ_ERROR"
	CodeDesiredParseError Code = "DESIRED_STATE_PARSE_ERROR"
	CodeDetailFetchError  Code = "DETAIL_FETCH_ERROR"
	CodeOutputWriteError  Code = "OUTPUT_WRITE_ERROR"
)

func (c Code) String() string {
	return string(c)
}
