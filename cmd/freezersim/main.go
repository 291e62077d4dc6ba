package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"liyu1981.xyz/coldchain-monitor/pkg/modbus"
)

const (
	temperatureRegister = 100
	humidityRegister    = 101
)

var (
	maxDevices   = flag.Int("devices", 20, "number of simulated freezers")
	basePort     = flag.Int("base-port", 15020, "modbus tcp port of the first freezer, the rest follow consecutively")
	bindHost     = flag.String("bind", "127.0.0.1", "address the simulated controllers listen on")
	httpHostPort = flag.String("monitor", "127.0.0.1:1080", "monitor http host:port")
	pollSeconds  = flag.Int("poll-seconds", 10, "polling interval configured for each freezer")
	stepSeconds  = flag.Int("step-seconds", 2, "how often the simulated temperatures move")
	doorChance   = flag.Float64("door-chance", 0.002, "per step probability that a door is left open")
)

var rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

func rndFloat64(min, max float64) float64 {
	rndMu.Lock()
	defer rndMu.Unlock()
	return min + rnd.Float64()*(max-min)
}

// freezer is one simulated controller. Temperature follows a random walk
// pulled back to target, except while the door is open.
type freezer struct {
	deviceID    string
	table       *modbus.RegisterTable
	server      *modbus.Server
	target      float64
	temperature float64
	humidity    float64
	doorOpenFor int
}

func (f *freezer) step() {
	if f.doorOpenFor > 0 {
		f.doorOpenFor--
		f.temperature += rndFloat64(0.2, 0.6)
	} else {
		f.temperature += (f.target-f.temperature)*0.1 + rndFloat64(-0.3, 0.3)
		if rndFloat64(0, 1) < *doorChance {
			f.doorOpenFor = 30 + int(rndFloat64(0, 60))
		}
	}
	f.humidity = math.Min(95, math.Max(20, f.humidity+rndFloat64(-0.5, 0.5)))
	f.store()
}

func (f *freezer) store() {
	f.table.Set(temperatureRegister, uint16(int16(math.Round(f.temperature*10))))
	f.table.Set(humidityRegister, uint16(math.Round(f.humidity*10)))
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := resty.New().
		SetBaseURL(fmt.Sprintf("http://%s", *httpHostPort)).
		SetTimeout(5*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json")

	resp, err := client.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	if resp.StatusCode() != http.StatusOK {
		log.Fatal("HTTP server not available")
	}
	fmt.Printf("http server verified\n")

	freezers := make([]*freezer, *maxDevices)
	for i := range *maxDevices {
		table := modbus.NewRegisterTable()
		addr := fmt.Sprintf("%s:%d", *bindHost, *basePort+i)
		server, err := modbus.Listen(addr, table)
		if err != nil {
			log.Fatalf("Failed to listen on %s: %v", addr, err)
		}
		target := -20.0
		if i%4 == 3 {
			target = -80.0
		}
		f := &freezer{
			deviceID:    fmt.Sprintf("sim-freezer-%03d", i),
			table:       table,
			server:      server,
			target:      target,
			temperature: target,
			humidity:    rndFloat64(40, 60),
		}
		f.store()
		freezers[i] = f
	}
	defer func() {
		for _, f := range freezers {
			_ = f.server.Close()
		}
	}()
	fmt.Printf("started %v modbus controllers from port %v\n", *maxDevices, *basePort)

	startTime := time.Now()
	wg := sync.WaitGroup{}
	for i, f := range freezers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := registerFreezer(ctx, client, f, *basePort+i); err != nil {
				fmt.Printf("\nregister %v failed: %v\n", f.deviceID, err)
				return
			}
			fmt.Printf("\rregistered freezer %v", f.deviceID)
		}()
	}
	wg.Wait()
	usedTime := time.Since(startTime)
	fmt.Printf(
		"\rregistered %v freezers: used time=%v seconds\n",
		*maxDevices, usedTime.Seconds(),
	)

	ticker := time.NewTicker(time.Duration(*stepSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Printf("\nstopping\n")
			return
		case <-ticker.C:
			for _, f := range freezers {
				f.step()
			}
		}
	}
}

func registerFreezer(ctx context.Context, client *resty.Client, f *freezer, port int) error {
	warning, critical := 5.0, 10.0
	payload := map[string]any{
		"name":                     f.deviceID,
		"location":                 "simulator",
		"transport":                modbus.TransportTCP,
		"host":                     *bindHost,
		"port":                     port,
		"unit_id":                  1,
		"timeout_millis":           1000,
		"register_type":            "holding",
		"data_type":                "int16",
		"temperature_register":     temperatureRegister,
		"humidity_register":        humidityRegister,
		"temperature_scale":        "0.1",
		"humidity_scale":           "0.1",
		"target_temperature":       fmt.Sprintf("%.1f", f.target),
		"min_excursion_minutes":    1,
		"max_duration_minutes":     30,
		"polling_interval_seconds": *pollSeconds,
		"fallback": map[string]string{
			"temperature_warning_min":  fmt.Sprintf("%.1f", f.target-warning),
			"temperature_warning_max":  fmt.Sprintf("%.1f", f.target+warning),
			"temperature_critical_min": fmt.Sprintf("%.1f", f.target-critical),
			"temperature_critical_max": fmt.Sprintf("%.1f", f.target+critical),
			"humidity_warning_max":     "85",
			"humidity_critical_max":    "92",
		},
	}

	resp, err := client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(fmt.Sprintf("/devices/%s/config", f.deviceID))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
