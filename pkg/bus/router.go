package bus

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/you/clinic-booking/pkg/apperr"
)

// Request is a decoded inbound envelope plus the path parameters bound by
// the matched pattern.
type Request struct {
	Envelope
	Params map[string]string
}

// HandlerFunc executes one operation and returns the response payload and
// status. Handlers never serialize errors; the router's error boundary does.
type HandlerFunc func(ctx context.Context, req *Request) (any, int, error)

type route struct {
	method  string
	pattern string
	segs    []string
	handler HandlerFunc
}

// Router dispatches inbound request envelopes by (method, path) against an
// ordered pattern table and publishes the response on a fixed reply key.
// Registration order is the precedence rule: bind specific patterns
// (/appointments/status) before generic ones (/appointments/:id).
type Router struct {
	service string
	pub     TopicPublisher
	resKey  string
	routes  []route
}

func NewRouter(service string, pub TopicPublisher, resKey string) *Router {
	return &Router{service: service, pub: pub, resKey: resKey}
}

func (r *Router) Handle(method, pattern string, h HandlerFunc) {
	r.routes = append(r.routes, route{
		method:  method,
		pattern: pattern,
		segs:    splitPath(pattern),
		handler: h,
	})
}

// Dispatch decodes body, runs the first matching handler, and publishes the
// response envelope. Unmatched requests are logged and dropped without a
// reply, so the caller observes a timeout; the same goes for envelopes that
// cannot be decoded, which carry no usable correlation id.
func (r *Router) Dispatch(ctx context.Context, body []byte) {
	var env Envelope
	if err := envUnmarshal(body, &env); err != nil {
		log.Printf("[%s] invalid request envelope: %v", r.service, err)
		return
	}
	if env.MsgID == "" {
		log.Printf("[%s] request without msgId on path %s", r.service, env.Path)
		return
	}

	path := splitPath(env.Path)
	for _, rt := range r.routes {
		if rt.method != env.Method {
			continue
		}
		params, ok := matchPath(rt.segs, path)
		if !ok {
			continue
		}
		log.Printf("[%s] %s %s -> %s", r.service, env.Method, env.Path, rt.pattern)
		payload, status, err := rt.handler(ctx, &Request{Envelope: env, Params: params})
		r.respond(ctx, env.MsgID, payload, status, err)
		return
	}

	log.Printf("[%s] no route for %s %s, dropping", r.service, env.Method, env.Path)
}

func (r *Router) respond(ctx context.Context, msgID string, payload any, status int, err error) {
	res := Envelope{MsgID: msgID, Status: status}
	if err != nil {
		ae := apperr.From(err)
		res.Status = ae.Status
		res.Data = MustData(ae)
	} else if payload != nil {
		res.Data = MustData(payload)
	}
	if perr := r.pub.PublishJSON(ctx, r.resKey, res); perr != nil {
		log.Printf("[%s] publish response msgId=%s failed: %v", r.service, msgID, perr)
	}
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

// matchPath binds pattern segments against path segments; ":name" segments
// capture, everything else must match literally.
func matchPath(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			if path[i] == "" {
				return nil, false
			}
			params[seg[1:]] = path[i]
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}
	return params, true
}

func envUnmarshal(body []byte, env *Envelope) error {
	return json.Unmarshal(body, env)
}
