package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

func ErrorDuplicateValue(column string) error {
	return fmt.Errorf("duplicate value for %s", column)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
