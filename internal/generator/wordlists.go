package generator

import "strings"

// DefaultStopwords are function words never accepted as candidates.
var DefaultStopwords = toSet(strings.Fields(`
	the and but for nor yet or in on at to of by with as per via
	its it's his her their our your any all some`))

// RareSet reports whether a prefix should use strict generation.
type RareSet interface {
	Contains(prefix string) bool
}

// StaticRareSet is a fixed set of prefixes.
type StaticRareSet map[string]struct{}

func (s StaticRareSet) Contains(prefix string) bool {
	_, ok := s[strings.ToLower(prefix)]
	return ok
}

// DefaultRareSet is the hand-curated list of two-letter prefixes that rarely
// begin a common English word.
var DefaultRareSet = StaticRareSet(toSet(strings.Fields(`
	kb kc kf kg kq kx kz
	lc ld lf lg lk ln lp lq lr ls lt lv lw lx lz
	mb mc md mf mg mh mj mk ml mm mn mp mq mr ms mt mv mw mx mz
	nb nc nd nf ng nh nj nk nl nm nn np nq nr ns nt nv nw nx nz
	pb pc pd pf pg pj pk pm pn pp pq pv pw px pz
	qb qc qd qe qf qg qh qi qj qk ql qm qn qo qp qq qr qs qt qv qw qx qy qz
	rb rc rd rf rg rj rk rl rm rn rp rq rr rs rt rv rw rx rz
	sb sd sf sg sj sk sl sm sn sp sq sr ss sv sw sx sz
	tb tc td tf tg tj tk tl tm tn tp tq ts tt tv tx tz
	ub uc ud uf ug uh uj uk ul um uq uv uw ux uy uz
	vb vc vd vf vg vh vj vk vl vm vn vp vq vr vs vt vu vv vw vx vy vz
	wb wc wd wf wg wj wk wl wm wn wp wq wr ws wt wu wv ww wx wy wz
	xb xc xd xe xf xg xh xi xj xk xl xm xn xo xp xq xr xs xt xu xv xw xx xy xz
	yb yc yd yf yg yh yj yk yl ym yn yp yq yr ys yt yu yv yw yx yy yz
	zb zc zd ze zf zg zh zi zj zk zl zm zn zo zp zq zr zs zt zu zv zw zx zy zz`)))

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
