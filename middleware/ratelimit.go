package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var (
	rlMu     sync.Mutex
	limiters = map[string]*rate.Limiter{}
	window   = 10 * time.Second
	capacity = 5

	dupMu   sync.Mutex
	lastMsg = map[string]struct {
		text string
		ts   time.Time
	}{}
	dupTTL = 45 * time.Second

	cgMu     sync.Mutex
	userSem  = map[uint]chan struct{}{}
	userConc = 2
)

// SetRateLimitConfig allows cap requests per window for each client key and
// conc concurrent streams per user. Existing limiters are reset.
func SetRateLimitConfig(win time.Duration, cap, conc int) {
	rlMu.Lock()
	window = win
	capacity = cap
	limiters = map[string]*rate.Limiter{}
	rlMu.Unlock()
	cgMu.Lock()
	userConc = conc
	userSem = map[uint]chan struct{}{}
	cgMu.Unlock()
}

// SetDuplicateTTL also forgets previously seen messages.
func SetDuplicateTTL(ttl time.Duration) {
	dupMu.Lock()
	dupTTL = ttl
	lastMsg = map[string]struct {
		text string
		ts   time.Time
	}{}
	dupMu.Unlock()
}

func clientIP(c *gin.Context) string {
	ip := strings.TrimSpace(c.ClientIP())
	if ip == "" {
		host, _, _ := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
		ip = host
	}
	return ip
}

func userKey(c *gin.Context) string {
	return strconv.FormatUint(uint64(CurrentUserID(c)), 10) + "@" + clientIP(c)
}

func limiterFor(key string) *rate.Limiter {
	rlMu.Lock()
	defer rlMu.Unlock()
	l := limiters[key]
	if l == nil {
		l = rate.NewLimiter(rate.Limit(float64(capacity)/window.Seconds()), capacity)
		limiters[key] = l
	}
	return l
}

func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiterFor(userKey(c)).Allow() {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"msg": "too many requests"})
			return
		}
		c.Next()
	}
}

// DuplicateGuard reports false when uid sent the same text within the TTL.
func DuplicateGuard(uid uint, text string) bool {
	now := time.Now()
	k := strconv.FormatUint(uint64(uid), 10)
	text = strings.TrimSpace(text)
	dupMu.Lock()
	defer dupMu.Unlock()
	entry, ok := lastMsg[k]
	if ok && entry.text == text && now.Sub(entry.ts) < dupTTL {
		return false
	}
	lastMsg[k] = struct {
		text string
		ts   time.Time
	}{text: text, ts: now}
	return true
}

// ForgetDuplicate clears uid's last message when it is still text, so a
// start that failed before being accepted can be retried at once.
func ForgetDuplicate(uid uint, text string) {
	k := strconv.FormatUint(uint64(uid), 10)
	text = strings.TrimSpace(text)
	dupMu.Lock()
	defer dupMu.Unlock()
	if entry, ok := lastMsg[k]; ok && entry.text == text {
		delete(lastMsg, k)
	}
}

// TryAcquireUserSlot takes one of the user's concurrent stream slots. ok is
// false when all slots are busy.
func TryAcquireUserSlot(uid uint) (release func(), ok bool) {
	cgMu.Lock()
	sem := userSem[uid]
	if sem == nil {
		sem = make(chan struct{}, userConc)
		userSem[uid] = sem
	}
	cgMu.Unlock()
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, true
	default:
		return func() {}, false
	}
}
