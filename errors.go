/*
 * errors.go, part of golayers.
 *
 * Copyright 2023 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * golayers is currently developed at the Universidad de Santiago de Chile
 * (USACH)
 *
 */

package layers

// Error is the interface for errors that the packages in this library implement.
// The Decorate method allows to add and retrieve info from the error, without
// changing its type or wrapping it around something else. The decoration slice
// should contain the names of the functions in the calling stack, plus, for each
// function, any relevant information, or nothing.
type Error interface {
	Error() string
	Decorate(string) []string //if passed an empty string, Decorate just returns the current decoration without adding anything.
}

// CError is the concrete error type of the layers package. It fulfills the
// Error interface.
type CError struct {
	msg  string
	deco []string
}

func (err *CError) Error() string { return err.msg }

// Decorate adds the given string to the decoration trail of the error, and
// returns the current trail.
func (err *CError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// newError builds a CError with the given message, already decorated with the
// name of the function reporting it.
func newError(msg, caller string) *CError {
	return &CError{msg: msg, deco: []string{caller}}
}

// errDecorate asserts that err implements Error, decorates it with the
// caller's name and returns it. Errors from outside the library (os, strconv,
// etc.) get wrapped into a CError instead.
func errDecorate(err error, caller string) error {
	err2, ok := err.(Error)
	if !ok {
		return &CError{msg: err.Error(), deco: []string{caller}}
	}
	err2.Decorate(caller)
	return err2
}

// Messages shared by several functions.
const (
	ErrNilStructure   = "nil structure given"
	ErrEmptyStructure = "structure contains no sites"
	ErrNoFilesMatched = "no files matched"
)
