package ctw

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// The persisted format is text, whitespace separated: a line with the depth,
// a line with the history as a run of '0'/'1' characters, then the nodes in
// pre-order, each as "Le Lw count0 count1 has0 [child0] has1 [child1]".
// Floats are formatted with the shortest representation that round-trips,
// so serialize-load-serialize is byte identical.

// Write serializes the tree to w.
func (t *Tree) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strconv.Itoa(t.depth))
	bw.WriteByte('\n')
	for _, sym := range t.history {
		bw.WriteByte('0' + sym)
	}
	bw.WriteByte('\n')
	writeNode(bw, t.root)
	bw.WriteByte('\n')
	return errors.Wrap(bw.Flush(), "failed to write context tree")
}

func writeNode(bw *bufio.Writer, nd *node) {
	bw.WriteString(strconv.FormatFloat(nd.logProbEst, 'g', -1, 64))
	bw.WriteByte(' ')
	bw.WriteString(strconv.FormatFloat(nd.logProbWeighted, 'g', -1, 64))
	bw.WriteByte(' ')
	bw.WriteString(strconv.FormatUint(uint64(nd.count[0]), 10))
	bw.WriteByte(' ')
	bw.WriteString(strconv.FormatUint(uint64(nd.count[1]), 10))
	bw.WriteByte(' ')
	for sym := 0; sym < 2; sym++ {
		if nd.child[sym] != nil {
			bw.WriteString("1 ")
			writeNode(bw, nd.child[sym])
		} else {
			bw.WriteString("0 ")
		}
	}
}

// Load deserializes a tree from r. The file's depth must match the
// configured depth, otherwise an error is returned and the caller should
// keep its fresh tree.
func Load(r io.Reader, depth int) (*Tree, error) {
	br := bufio.NewReader(r)
	depthLine, err := br.ReadString('\n')
	if err != nil {
		return nil, errors.Wrap(err, "failed to read context tree depth")
	}
	fileDepth, err := strconv.Atoi(trimEOL(depthLine))
	if err != nil {
		return nil, errors.Wrapf(err, "malformed context tree depth %q", trimEOL(depthLine))
	}
	if fileDepth != depth {
		return nil, errors.Errorf("context tree depth is %d, configured depth is %d", fileDepth, depth)
	}

	historyLine, err := br.ReadString('\n')
	if err != nil {
		return nil, errors.Wrap(err, "failed to read context tree history")
	}
	t := &Tree{
		depth: depth,
		path:  make([]*node, depth+1),
		ctx:   make([]byte, depth+1),
	}
	for _, c := range []byte(trimEOL(historyLine)) {
		if c != '0' && c != '1' {
			return nil, errors.Errorf("invalid history character %q", c)
		}
		t.history = append(t.history, c-'0')
	}

	sc := bufio.NewScanner(br)
	sc.Split(bufio.ScanWords)
	t.root, err = readNode(sc)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func trimEOL(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

func nextToken(sc *bufio.Scanner) (string, error) {
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", errors.Wrap(err, "failed to read context tree node")
		}
		return "", errors.New("truncated context tree")
	}
	return sc.Text(), nil
}

func readNode(sc *bufio.Scanner) (*node, error) {
	nd := &node{}
	tok, err := nextToken(sc)
	if err != nil {
		return nil, err
	}
	if nd.logProbEst, err = strconv.ParseFloat(tok, 64); err != nil {
		return nil, errors.Wrapf(err, "malformed node probability %q", tok)
	}
	if tok, err = nextToken(sc); err != nil {
		return nil, err
	}
	if nd.logProbWeighted, err = strconv.ParseFloat(tok, 64); err != nil {
		return nil, errors.Wrapf(err, "malformed node probability %q", tok)
	}
	for sym := 0; sym < 2; sym++ {
		if tok, err = nextToken(sc); err != nil {
			return nil, err
		}
		count, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed node count %q", tok)
		}
		nd.count[sym] = uint32(count)
	}
	for sym := 0; sym < 2; sym++ {
		if tok, err = nextToken(sc); err != nil {
			return nil, err
		}
		switch tok {
		case "0":
		case "1":
			if nd.child[sym], err = readNode(sc); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("malformed child presence bit %q", tok)
		}
	}
	return nd, nil
}
