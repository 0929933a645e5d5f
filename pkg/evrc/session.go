package evrc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gregLibert/evrc-reader/pkg/iso7816"
	"github.com/gregLibert/evrc-reader/pkg/tlv"
	"github.com/sirupsen/logrus"
)

// Config carries the session options. The zero value reads a card strictly.
type Config struct {
	// Debug logs every APDU exchanged with the card.
	Debug bool

	// AutoResponse follows '61XX' and '6CXX' answers (T=0 readers).
	AutoResponse bool

	// CheckFileID rejects an FCP naming another file than the selected one.
	CheckFileID bool

	// MaxDepth bounds TLV nesting in file content. Zero means tlv.DefaultMaxDepth.
	MaxDepth int

	// Logger replaces the package logger.
	Logger *logrus.Entry
}

// FileResult is the outcome of reading one file.
type FileResult struct {
	File File
	FCP  FcpTemplate

	// Data holds the bytes read, possibly fewer than FCP.FileSize.
	Data []byte

	// Nodes holds the decoded content once Decode succeeded.
	Nodes []tlv.Node

	// Err is a *FileError when the file was skipped.
	Err error
}

// OK reports whether the file was read and, if decoded, decoded without error.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// Decode parses the file content. On failure the file contributes no field.
func (r *FileResult) Decode(dec tlv.Decoder) {
	if r.Err != nil {
		return
	}

	nodes, err := dec.ParseAll(r.Data)
	if err != nil {
		r.Err = &FileError{File: r.File, Op: "decode", Err: err}
		return
	}
	r.Nodes = nodes
}

// Result gathers the outcome of a session.
type Result struct {
	Files []FileResult

	// Registration is set by Collect.
	Registration *Registration
}

// Errors returns the file-level failures, in file order.
func (r *Result) Errors() []error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// File returns the result for one file.
func (r *Result) File(file File) (FileResult, bool) {
	for _, f := range r.Files {
		if f.File == file {
			return f, true
		}
	}
	return FileResult{}, false
}

// Assemble decodes the files that were read, concatenates their forests in file
// order and maps them onto a Registration. Files that fail to decode are marked
// in place and skipped.
func Assemble(dec tlv.Decoder, files []FileResult) Registration {
	return assemble(dec, files, logger)
}

func assemble(dec tlv.Decoder, files []FileResult, log *logrus.Entry) Registration {
	var forest []tlv.Node
	for i := range files {
		if files[i].File == FSOd || files[i].Err != nil {
			continue
		}
		files[i].Decode(dec)
		if files[i].Err != nil {
			log.WithError(files[i].Err).WithField("file", files[i].File).Warn("skipping file")
			continue
		}
		forest = append(forest, files[i].Nodes...)
	}
	return ToRegistration(Flatten(forest...))
}

// Session drives one card. It owns its transport: sessions never share state
// and a Session must not be used from two goroutines.
type Session struct {
	client   *iso7816.Client
	selector *Selector
	reader   *Reader
	decoder  tlv.Decoder
	log      *logrus.Entry
}

// NewSession prepares a session over a card connection.
func NewSession(card iso7816.Transmitter, cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = logger
	}

	client := iso7816.NewClient(card,
		iso7816.WithDebug(cfg.Debug),
		iso7816.WithAutoResponse(cfg.AutoResponse),
		iso7816.WithLogger(log),
	)

	selector := NewSelector(client, log)
	selector.CheckFileID = cfg.CheckFileID

	return &Session{
		client:   client,
		selector: selector,
		reader:   NewReader(client, log),
		decoder:  tlv.Decoder{MaxDepth: cfg.MaxDepth, SkipPadding: true},
		log:      log,
	}
}

// SelectApplication selects the eVRC application and checks the card's answer
// byte for byte.
func (s *Session) SelectApplication() error {
	data, err := s.client.Exchange(iso7816.SelectApplication(iso7816.Class{}, ApplicationID))
	if err != nil {
		var refused *iso7816.UnsuccessfulResponse
		if errors.As(err, &refused) {
			return &UnexpectedApplicationError{Response: refused.Response, Err: err}
		}
		return fmt.Errorf("select eVRC application: %w", err)
	}

	if !bytes.Equal(data, expectedApplicationFCI) {
		appErr := &UnexpectedApplicationError{Response: data}
		if fci, err := ParseApplicationFCI(data); err == nil {
			appErr.AID = fci.DFName
		}
		return appErr
	}

	s.log.Debug("eVRC application selected")
	return nil
}

// ReadFile selects one file and reads its content. It expects the application to
// be selected already.
func (s *Session) ReadFile(file File) FileResult {
	res := FileResult{File: file}

	fcp, err := s.selector.Select(file)
	if err != nil {
		res.Err = &FileError{File: file, Op: "select", Err: err}
		s.log.WithError(err).WithField("file", file).Warn("skipping file")
		return res
	}
	res.FCP = fcp

	res.Data = s.reader.Read(fcp.FileSize)
	if len(res.Data) < int(fcp.FileSize) {
		s.log.WithFields(logrus.Fields{
			"file":     file,
			"declared": fcp.FileSize,
			"read":     len(res.Data),
		}).Debug("file shorter than declared")
	}
	return res
}

// ReadFiles selects the application, then reads the given files in order.
// Only the application selection can fail the call; file failures are reported
// in the Result.
func (s *Session) ReadFiles(files ...File) (*Result, error) {
	if err := s.SelectApplication(); err != nil {
		return nil, err
	}

	res := &Result{Files: make([]FileResult, 0, len(files))}
	for _, f := range files {
		res.Files = append(res.Files, s.ReadFile(f))
	}
	return res, nil
}

// Collect reads the registration files and assembles the Registration.
func (s *Session) Collect() (*Result, error) {
	res, err := s.ReadFiles(RegistrationFiles...)
	if err != nil {
		return nil, err
	}

	reg := assemble(s.decoder, res.Files, s.log)
	res.Registration = &reg
	return res, nil
}

// Read returns the Registration stored on the card. Fields whose file could not
// be read or decoded are NotFound.
func (s *Session) Read() (*Registration, error) {
	res, err := s.Collect()
	if err != nil {
		return nil, err
	}
	return res.Registration, nil
}
