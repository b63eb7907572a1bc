package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TXT record keys.
const (
	TXTKeyVersion = "v"
	TXTKeyID      = "id"
	TXTKeyName    = "name"
	TXTKeyClients = "n"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeHubTXT creates the TXT records a hub advertises.
func EncodeHubTXT(info *HubInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyVersion: strconv.Itoa(ProtocolVersion),
		TXTKeyID:      info.ID,
	}
	if info.Name != "" {
		txt[TXTKeyName] = info.Name
	}
	if info.Clients > 0 {
		txt[TXTKeyClients] = strconv.Itoa(info.Clients)
	}
	return txt
}

// DecodeHubTXT parses hub TXT records into a service skeleton.
func DecodeHubTXT(txt TXTRecordMap) (*HubService, error) {
	svc := &HubService{}

	v, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	version, err := strconv.Atoi(v)
	if err != nil || version < 1 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	svc.Version = version

	svc.ID, ok = txt[TXTKeyID]
	if !ok || svc.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyID)
	}

	svc.Name = txt[TXTKeyName]
	if n, ok := txt[TXTKeyClients]; ok {
		// A malformed count is not worth dropping the hub over.
		svc.Clients, _ = strconv.Atoi(n)
	}
	return svc, nil
}

// TXTRecordsToStrings converts the map to key=value strings, sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	out := make([]string, 0, len(txt))
	for k, v := range txt {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// StringsToTXTRecords parses key=value strings. Entries without "=" are
// boolean attributes and map to an empty value.
func StringsToTXTRecords(records []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		if k == "" {
			continue
		}
		txt[k] = v
	}
	return txt
}
