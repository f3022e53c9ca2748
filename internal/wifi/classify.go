package wifi

import (
	"strings"
	"unicode/utf8"

	"github.com/strct-org/strct-wifi/internal/errs"
	"github.com/strct-org/strct-wifi/internal/telemetry"
)

// Category tells the classifier what a successful invocation looks like.
type Category int

const (
	CatConnect Category = iota
	CatDisconnect
	CatRescan
	CatList
	CatHotspotCreate
	CatHotspotModify
	CatHotspotUp
	CatHotspotDown
	CatHotspotDelete
	CatRadio
	CatQuery
)

type categoryRule struct {
	name string
	// phrase must appear in stdout. Empty with emptyOK set means stdout must
	// be empty; empty without emptyOK accepts any stdout.
	phrase  string
	emptyOK bool
}

var categoryRules = map[Category]categoryRule{
	CatConnect:       {name: "connect", phrase: "successfully activated"},
	CatDisconnect:    {name: "disconnect", phrase: "successfully disconnected"},
	CatRescan:        {name: "rescan", emptyOK: true},
	CatList:          {name: "list"},
	CatHotspotCreate: {name: "hotspot_create", phrase: "successfully added"},
	CatHotspotModify: {name: "hotspot_modify", emptyOK: true},
	CatHotspotUp:     {name: "hotspot_up", phrase: "Connection successfully activated"},
	CatHotspotDown:   {name: "hotspot_down", phrase: "successfully deactivated"},
	CatHotspotDelete: {name: "hotspot_delete", phrase: "successfully deleted"},
	CatRadio:         {name: "radio", emptyOK: true},
	CatQuery:         {name: "query"},
}

func (c Category) String() string {
	if r, ok := categoryRules[c]; ok {
		return r.name
	}
	return "unknown"
}

// Classify decides whether a completed invocation succeeded. On success it
// returns the trimmed stdout text.
//
// Non-empty stderr always wins and is reported as KindRejected. Otherwise the
// category rule is applied to stdout: a missing success phrase, or any text
// where empty output is expected, is KindActionFailed. Matching is an exact,
// case-sensitive substring test. Tool text is carried verbatim in Message.
func Classify(cat Category, stdout, stderr []byte) (string, error) {
	if !utf8.Valid(stderr) {
		return "", errs.E(errs.KindDecode, "stderr is not valid UTF-8")
	}
	if !utf8.Valid(stdout) {
		return "", errs.E(errs.KindDecode, "stdout is not valid UTF-8")
	}

	if diag := strings.TrimSpace(string(stderr)); diag != "" {
		return "", errs.E(errs.KindRejected, diag)
	}

	out := strings.TrimSpace(string(stdout))
	rule, ok := categoryRules[cat]
	if !ok {
		return "", errs.E(errs.KindOther, "unknown command category")
	}

	switch {
	case rule.phrase != "":
		if !strings.Contains(out, rule.phrase) {
			return "", errs.E(errs.KindActionFailed, out)
		}
	case rule.emptyOK:
		if out != "" {
			return "", errs.E(errs.KindActionFailed, out)
		}
	}

	return out, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return telemetry.OutcomeOK
	}
	switch errs.KindOf(err) {
	case errs.KindIO:
		return telemetry.OutcomeIO
	case errs.KindDecode:
		return telemetry.OutcomeDecode
	case errs.KindRejected:
		return telemetry.OutcomeReject
	case errs.KindActionFailed:
		return telemetry.OutcomeFailed
	}
	return telemetry.OutcomeUnknown
}
