package location

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"googlemaps.github.io/maps"
)

// runFunc executes an external command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s not found: %w", name, err)
	}
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return out, nil
}

// scanWiFi lists nearby access points through NetworkManager.
func scanWiFi(ctx context.Context, run runFunc) ([]maps.WiFiAccessPoint, error) {
	out, err := run(ctx, "nmcli", "-t", "-f", "BSSID,SIGNAL", "dev", "wifi", "list")
	if err != nil {
		return nil, err
	}
	return parseWiFiList(out)
}

// parseWiFiList reads nmcli terse output, where colons inside the BSSID are
// escaped as "\:".
func parseWiFiList(out []byte) ([]maps.WiFiAccessPoint, error) {
	var aps []maps.WiFiAccessPoint
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		i := strings.LastIndex(line, ":")
		if i <= 0 {
			continue
		}
		mac := strings.ReplaceAll(line[:i], `\:`, ":")
		if !isValidMAC(mac) {
			continue
		}
		signal, err := strconv.Atoi(line[i+1:])
		if err != nil {
			continue
		}
		aps = append(aps, maps.WiFiAccessPoint{MACAddress: mac, SignalStrength: float64(signal)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan nmcli output: %w", err)
	}
	return aps, nil
}

// scanCellTower reads the serving cell of the given ModemManager modem.
func scanCellTower(ctx context.Context, run runFunc, modem int) ([]maps.CellTower, error) {
	out, err := run(ctx, "mmcli", "-m", strconv.Itoa(modem), "--location-get", "--output-keyvalue")
	if err != nil {
		return nil, err
	}
	tower, err := parseModemLocation(out)
	if err != nil {
		return nil, err
	}
	return []maps.CellTower{tower}, nil
}

func parseModemLocation(out []byte) (maps.CellTower, error) {
	var tower maps.CellTower
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "modem.location.3gpp.mcc":
			tower.MobileCountryCode, _ = strconv.Atoi(value)
		case "modem.location.3gpp.mnc":
			tower.MobileNetworkCode, _ = strconv.Atoi(value)
		case "modem.location.3gpp.lac":
			if lac, err := strconv.ParseInt(value, 16, 32); err == nil {
				tower.LocationAreaCode = int(lac)
			}
		case "modem.location.3gpp.cid":
			if cid, err := strconv.ParseInt(value, 16, 64); err == nil {
				tower.CellID = int(cid)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return maps.CellTower{}, fmt.Errorf("failed to scan mmcli output: %w", err)
	}
	if tower.MobileCountryCode == 0 || tower.MobileNetworkCode == 0 {
		return maps.CellTower{}, errors.New("incomplete cell tower data")
	}
	return tower, nil
}

// isValidMAC accepts colon separated addresses such as "00:14:22:01:23:45".
func isValidMAC(mac string) bool {
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return false
	}
	for _, part := range parts {
		if len(part) != 2 {
			return false
		}
		if _, err := strconv.ParseUint(part, 16, 8); err != nil {
			return false
		}
	}
	return true
}
