/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package console runs the interactive text menu on top of a catalog.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"comicshelf/internal/catalog"
	"comicshelf/internal/domain"
	applog "comicshelf/internal/log"
)

// ErrMalformedInput is returned by the line readers for non-numeric input.
var ErrMalformedInput = errors.New("malformed input")

// Menu choices.
const (
	ChoiceAdd    = 1
	ChoiceList   = 2
	ChoiceRemove = 3
	ChoiceExit   = 4
)

// Catalog is what the menu needs from the catalog manager.
type Catalog interface {
	Add(ctx context.Context, title, author string, publicationYear int) (domain.Comic, error)
	List() []domain.Comic
	RemoveByTitle(ctx context.Context, title string) (domain.Comic, error)
}

// Session reads commands line by line from in until the user exits or in is exhausted.
type Session struct {
	cat Catalog
	in  *bufio.Reader
	out io.Writer
	log *slog.Logger
}

// NewSession builds a session over the given streams.
func NewSession(cat Catalog, in io.Reader, out io.Writer) *Session {
	return &Session{
		cat: cat,
		in:  bufio.NewReader(in),
		out: out,
		log: applog.WithComponent("console"),
	}
}

// Run processes commands until exit, end of input or ctx cancellation.
// Only a read failure or cancellation yields an error.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printMenu()
		choice, err := s.readInt()
		if errors.Is(err, io.EOF) {
			s.println("Goodbye.")
			return nil
		}
		if errors.Is(err, ErrMalformedInput) {
			s.println("Please enter a valid number.")
			continue
		}
		if err != nil {
			return err
		}

		var done bool
		switch choice {
		case ChoiceAdd:
			done, err = s.add(ctx)
		case ChoiceList:
			s.list()
		case ChoiceRemove:
			done, err = s.remove(ctx)
		case ChoiceExit:
			s.println("Goodbye.")
			return nil
		default:
			s.println("Invalid option. Please try again.")
		}
		if err != nil {
			return err
		}
		if done {
			s.println("Goodbye.")
			return nil
		}
	}
}

func (s *Session) printMenu() {
	s.println("")
	s.println("Menu:")
	s.println("1. Add comic")
	s.println("2. List comics")
	s.println("3. Remove comic")
	s.println("4. Exit")
	s.print("Select an option: ")
}

// add returns done=true when input ends mid-prompt.
func (s *Session) add(ctx context.Context) (bool, error) {
	s.print("Enter the comic title: ")
	title, err := s.readLine()
	if err != nil {
		return eof(err)
	}
	s.print("Enter the comic author: ")
	author, err := s.readLine()
	if err != nil {
		return eof(err)
	}
	s.print("Enter the publication year: ")
	year, err := s.readInt()
	if errors.Is(err, ErrMalformedInput) {
		s.println("Error: publication year must be a whole number.")
		return false, nil
	}
	if err != nil {
		return eof(err)
	}

	c, err := s.cat.Add(ctx, title, author, year)
	if err != nil {
		s.log.Debug("add rejected", slog.Any("err", err))
		s.printf("Error: %v\n", err)
		return false, nil
	}
	s.printf("Comic added: %s\n", c)
	return false, nil
}

func (s *Session) list() {
	comics := s.cat.List()
	if len(comics) == 0 {
		s.println("The catalog is empty.")
		return
	}
	s.println("Comics:")
	for _, c := range comics {
		s.println(c.String())
	}
}

func (s *Session) remove(ctx context.Context) (bool, error) {
	s.print("Enter the title of the comic to remove: ")
	title, err := s.readLine()
	if err != nil {
		return eof(err)
	}
	c, err := s.cat.RemoveByTitle(ctx, title)
	if errors.Is(err, catalog.ErrNotFound) {
		s.println("Comic not found.")
		return false, nil
	}
	if err != nil {
		s.printf("Error: %v\n", err)
		return false, nil
	}
	s.printf("Comic removed: %s\n", c)
	return false, nil
}

// readLine returns the next line without its terminator, or io.EOF.
// Lines have no length limit; a final line without newline is still returned.
func (s *Session) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read input: %w", err)
		}
		if line == "" {
			return "", io.EOF
		}
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (s *Session) readInt() (int, error) {
	line, err := s.readLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrMalformedInput, line)
	}
	return n, nil
}

func eof(err error) (bool, error) {
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

func (s *Session) print(a string) { _, _ = io.WriteString(s.out, a) }
func (s *Session) println(a string) { _, _ = io.WriteString(s.out, a+"\n") }
func (s *Session) printf(format string, a ...any) { _, _ = fmt.Fprintf(s.out, format, a...) }
