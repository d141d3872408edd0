package rpc

import (
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/huntnet-tech/huntnet-chain/internal/names"
	"github.com/huntnet-tech/huntnet-chain/pkg/tx"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

// defaultScanCount bounds name_scan when no count is given.
const defaultScanCount = 500

// defaultMaxAge is the name_filter default for "recently updated".
const defaultMaxAge = 36000

// nameInfo builds the result object shared by name_show, name_history,
// name_scan, and name_filter. Dead names expose no value or ownership.
func nameInfo(name []byte, data *names.Data) *NameInfoResult {
	res := &NameInfoResult{
		Name:   string(name),
		Dead:   data.Dead,
		Height: data.Height,
		TxID:   data.UpdateOutpoint.TxID.String(),
	}
	if !data.Dead {
		res.Value = string(data.Value)
		res.Vout = data.UpdateOutpoint.Index
		res.Address = hex.EncodeToString(data.Address.Data)
	}
	return res
}

// ── Name endpoints ──────────────────────────────────────────────────────

func (s *Server) handleNameShow(req *Request) (interface{}, *Error) {
	var params NameParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "name is required"}
	}

	data, err := s.view.GetName([]byte(params.Name))
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	if data == nil {
		return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("name not found: '%s'", params.Name)}
	}
	return nameInfo([]byte(params.Name), data), nil
}

func (s *Server) handleNameHistory(req *Request) (interface{}, *Error) {
	var params NameParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "name is required"}
	}
	if !s.cfg.History {
		return nil, &Error{Code: CodeInvalidRequest, Message: "name history is not enabled"}
	}

	name := []byte(params.Name)
	data, err := s.view.GetName(name)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	if data == nil {
		return nil, &Error{Code: CodeNotFound, Message: fmt.Sprintf("name not found: '%s'", params.Name)}
	}

	history, err := s.view.GetHistory(name)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	res := make([]*NameInfoResult, 0, len(history)+1)
	for i := range history {
		res = append(res, nameInfo(name, &history[i]))
	}
	res = append(res, nameInfo(name, data))
	return res, nil
}

func (s *Server) handleNameScan(req *Request) (interface{}, *Error) {
	var params ScanParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	count := params.Count
	if count == 0 {
		count = defaultScanCount
	}

	res := []*NameInfoResult{}
	if count < 0 {
		return res, nil
	}

	err := s.view.IterateNames([]byte(params.Start), func(name []byte, data *names.Data) error {
		if count == 0 {
			return errStopIteration
		}
		count--
		res = append(res, nameInfo(name, data))
		return nil
	})
	if err != nil && err != errStopIteration {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return res, nil
}

// errStopIteration terminates a name walk early; it never escapes.
var errStopIteration = fmt.Errorf("stop iteration")

func (s *Server) handleNameFilter(req *Request) (interface{}, *Error) {
	var params FilterParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.MaxAge < 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "'maxage' should be non-negative"}
	}
	if params.From < 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "'from' should be non-negative"}
	}
	if params.Nb < 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "'nb' should be non-negative"}
	}

	maxAge := params.MaxAge
	if maxAge == 0 && !paramsHaveKey(req, "maxage") {
		maxAge = defaultMaxAge
	}

	var re *regexp.Regexp
	if params.Regexp != "" {
		var err error
		re, err = regexp.Compile(params.Regexp)
		if err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid regexp: %v", err)}
		}
	}

	height := s.chain.Height()
	from := params.From
	nb := params.Nb

	namesOut := []*NameInfoResult{}
	count := 0
	err := s.view.IterateNames(nil, func(name []byte, data *names.Data) error {
		if maxAge != 0 && data.Height <= height && height-data.Height >= uint64(maxAge) {
			return nil
		}
		if re != nil && !re.Match(name) {
			return nil
		}
		if from > 0 {
			from--
			return nil
		}

		if params.Stat {
			count++
		} else {
			namesOut = append(namesOut, nameInfo(name, data))
		}

		if nb > 0 {
			nb--
			if nb == 0 {
				return errStopIteration
			}
		}
		return nil
	})
	if err != nil && err != errStopIteration {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}

	if params.Stat {
		return &FilterStatsResult{Blocks: height, Count: count}, nil
	}
	return namesOut, nil
}

// paramsHaveKey reports whether the raw params object carries the key.
// Distinguishes an explicit zero from an omitted field.
func paramsHaveKey(req *Request, key string) bool {
	obj, ok := req.Params.(map[string]interface{})
	if !ok {
		return false
	}
	_, ok = obj[key]
	return ok
}

func (s *Server) handleNamePending(req *Request) (interface{}, *Error) {
	var params PendingParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if s.pool == nil {
		return nil, &Error{Code: CodeInvalidRequest, Message: "mempool is not available"}
	}

	var txHashes []types.Hash
	if params.Name == "" {
		txHashes = s.pool.Hashes()
	} else if h, ok := s.pool.TxForName([]byte(params.Name)); ok {
		txHashes = append(txHashes, h)
	}

	res := []*PendingOpResult{}
	for _, h := range txHashes {
		t := s.pool.Get(h)
		if t == nil || !t.IsNamed() {
			continue
		}
		for _, out := range t.Outputs {
			op, ok := names.DecodeScript(out.Script)
			if !ok || !op.IsAnyUpdate() {
				continue
			}
			res = append(res, &PendingOpResult{
				Op:    op.Type.String(),
				Name:  string(op.Name),
				Value: string(op.Value),
				TxID:  h.String(),
			})
		}
	}
	return res, nil
}

func (s *Server) handleNameCheckDB(req *Request) (interface{}, *Error) {
	if err := s.chain.ValidateNameDB(); err != nil {
		return &CheckDBResult{Consistent: false}, nil
	}
	return &CheckDBResult{Consistent: true}, nil
}

// handleBuildNameUpdate implements the raw-tx name operation helper.
// Only the name_update operation is supported; the name input must be
// added by the caller (available from name_show), so building does not
// depend on the chain state.
func (s *Server) handleBuildNameUpdate(req *Request) (interface{}, *Error) {
	var params BuildNameUpdateParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Op != "name_update" {
		return nil, &Error{Code: CodeInvalidParams, Message: "only name_update is implemented for the rawtx API"}
	}
	if params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "name is required"}
	}
	if params.Address == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "address is required"}
	}
	addrData, err := hex.DecodeString(params.Address)
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "invalid address hex"}
	}

	addr := types.Script{Type: types.ScriptTypeP2PKH, Data: addrData}
	script := names.BuildUpdate(addr, []byte(params.Name), []byte(params.Value))

	amount := s.cfg.UpdateAmount
	built := tx.NewBuilder().
		SetNamed().
		AddOutput(amount, script).
		Build()
	return built, nil
}
