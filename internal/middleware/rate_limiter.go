package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-forecast-widget/internal/config"
	"github.com/fakhrymubarak/weather-forecast-widget/internal/model"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// visitor holds a rate limiter and the last time it was used.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limit is a token bucket expressed per minute.
type Limit struct {
	PerMinute float64
	Burst     int
}

// RateLimiter enforces a global per-IP bucket and a per-IP-per-location bucket.
type RateLimiter struct {
	global   Limit
	param    Limit
	paramKey string
	idleTTL  time.Duration

	muGlobal       sync.Mutex
	globalVisitors map[string]*visitor // key: ip
	muParam        sync.Mutex
	paramVisitors  map[string]map[string]*visitor // key: ip -> paramValue
}

// NewRateLimiter builds a limiter keyed on the paramKey query parameter.
func NewRateLimiter(global, param Limit, paramKey string, idleTTL time.Duration) *RateLimiter {
	return &RateLimiter{
		global:         global,
		param:          param,
		paramKey:       paramKey,
		idleTTL:        idleTTL,
		globalVisitors: make(map[string]*visitor),
		paramVisitors:  make(map[string]map[string]*visitor),
	}
}

// NewRateLimiterFromConfig reads the rate_limiter section and keys on "location".
func NewRateLimiterFromConfig() *RateLimiter {
	gRate, gBurst := config.GetGlobalRateLimiterConfig()
	pRate, pBurst := config.GetParamRateLimiterConfig()
	return NewRateLimiter(
		Limit{PerMinute: gRate, Burst: gBurst},
		Limit{PerMinute: pRate, Burst: pBurst},
		"location",
		config.GetRateLimiterCleanupTimeout(),
	)
}

func (rl *RateLimiter) globalLimiter(ip string) *rate.Limiter {
	rl.muGlobal.Lock()
	defer rl.muGlobal.Unlock()
	v, exists := rl.globalVisitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(rl.global.PerMinute/60.0), rl.global.Burst)
		rl.globalVisitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func (rl *RateLimiter) paramLimiter(ip, param string) *rate.Limiter {
	rl.muParam.Lock()
	defer rl.muParam.Unlock()
	if _, ok := rl.paramVisitors[ip]; !ok {
		rl.paramVisitors[ip] = make(map[string]*visitor)
	}
	v, exists := rl.paramVisitors[ip][param]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(rl.param.PerMinute/60.0), rl.param.Burst)
		rl.paramVisitors[ip][param] = &visitor{limiter, time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Sweep drops visitors idle for longer than the configured TTL.
func (rl *RateLimiter) Sweep(now time.Time) {
	rl.muGlobal.Lock()
	for ip, v := range rl.globalVisitors {
		if now.Sub(v.lastSeen) > rl.idleTTL {
			delete(rl.globalVisitors, ip)
		}
	}
	rl.muGlobal.Unlock()

	rl.muParam.Lock()
	for ip, paramMap := range rl.paramVisitors {
		for param, v := range paramMap {
			if now.Sub(v.lastSeen) > rl.idleTTL {
				delete(paramMap, param)
			}
		}
		if len(paramMap) == 0 {
			delete(rl.paramVisitors, ip)
		}
	}
	rl.muParam.Unlock()
}

// StartCleanup sweeps every minute until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				rl.Sweep(now)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// visitorCount reports the tracked global and per-param entries.
func (rl *RateLimiter) visitorCount() (global, param int) {
	rl.muGlobal.Lock()
	global = len(rl.globalVisitors)
	rl.muGlobal.Unlock()
	rl.muParam.Lock()
	for _, m := range rl.paramVisitors {
		param += len(m)
	}
	rl.muParam.Unlock()
	return
}

// getIP extracts the client's IP address from the HTTP request, considering X-Forwarded-For headers.
func getIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // fallback
	}
	return ip
}

func writeTooManyRequests(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(model.Response{
		Error:   &errMsg,
		Message: message,
	})
}

// Middleware returns an HTTP middleware enforcing both buckets. Requests over
// either limit get a 429 JSON body.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getIP(r)
		param := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(rl.paramKey)))
		if param == "" {
			// If param is missing, treat as a single bucket
			param = "__none__"
		}
		if !rl.globalLimiter(ip).Allow() {
			writeTooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per user/IP", rl.global.PerMinute),
				"Too Many Requests (global limit)")
			return
		}
		if !rl.paramLimiter(ip, param).Allow() {
			writeTooManyRequests(w,
				fmt.Sprintf("Rate limit exceeded: max %g requests per minute per unique %s per user/IP", rl.param.PerMinute, rl.paramKey),
				"Too Many Requests (per-param limit)")
			return
		}
		next.ServeHTTP(w, r)
	})
}
