package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/graph"
)

// Config represents the mock dataset configuration
type Config struct {
	Output        string
	Up            int // 向上几代祖先
	Down          int // 向下几代子孙
	MaxChildren   int
	Siblings      int
	NumCandidates int
	Seed          int64
}

var (
	surnames    = []string{"张", "王", "李", "刘", "陈", "杨", "赵", "孙"}
	givenMale   = []string{"伟", "强", "军", "磊", "建国", "志刚", "海涛", "明"}
	givenFemale = []string{"丽", "芳", "娜", "敏", "秀英", "静", "小小", "婷"}
	districts   = []string{"奎文区", "潍城区", "坊子区", "寒亭区", "青州市", "诸城市"}
	streets     = []string{"东风东街", "北宫西街", "胜利街", "健康街", "海岱路", "福寿街"}
	statuses    = []string{graph.StatusNormal, graph.StatusNormal, graph.StatusNormal, "重点关注"}
)

// 以本人为基准的称谓，key 为代差（正数为长辈）
var titles = map[int][2]string{
	3:  {"曾", "曾祖父"},
	2:  {"祖", "祖父"},
	1:  {"父", "父亲"},
	-1: {"子", "儿子"},
	-2: {"孙", "孙子"},
	-3: {"曾", "曾孙"},
}

var femaleTitles = map[int][2]string{
	-1: {"女", "女儿"},
	-2: {"孙", "孙女"},
	-3: {"曾", "曾孙女"},
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.Output, "o", "./mock-dataset.toml", "输出文件")
	flag.IntVar(&cfg.Up, "up", 2, "向上生成的代数")
	flag.IntVar(&cfg.Down, "down", 2, "向下生成的代数")
	flag.IntVar(&cfg.MaxChildren, "children", 3, "每人最多子女数")
	flag.IntVar(&cfg.Siblings, "siblings", 1, "本人的兄弟数")
	flag.IntVar(&cfg.NumCandidates, "candidates", 5, "检索候选人数量")
	flag.Int64Var(&cfg.Seed, "seed", 0, "随机种子 (0 表示使用当前时间)")
	flag.Parse()

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	fmt.Printf("正在生成 mock 数据集...\n")
	fmt.Printf("  向上代数: %d\n", cfg.Up)
	fmt.Printf("  向下代数: %d\n", cfg.Down)
	fmt.Printf("  最多子女: %d\n", cfg.MaxChildren)
	fmt.Printf("  随机种子: %d\n", cfg.Seed)

	d, err := generateDataset(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
	if err := writeDataset(cfg.Output, d); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✓ 数据集生成完成: %s\n", cfg.Output)
	fmt.Printf("  人员: %d  连线: %d  候选: %d\n", len(d.Persons), len(d.Links), len(d.Candidates))
	fmt.Printf("\n下一步:\n")
	fmt.Printf("  rkhl serve --dataset %s\n", cfg.Output)
}

type generator struct {
	cfg     *Config
	rng     *rand.Rand
	surname string
	nextID  int
	persons []graph.PersonNode
	links   []graph.Link
	// 每一代的人员下标，用于排布横坐标
	byGen map[int][]int
}

func generateDataset(cfg *Config) (*dataset.Dataset, error) {
	if cfg.Up < 0 || cfg.Down < 0 || cfg.Up > 3 || cfg.Down > 3 {
		return nil, fmt.Errorf("代数必须在 0 到 3 之间")
	}
	if cfg.MaxChildren < 1 {
		return nil, fmt.Errorf("每人最多子女数必须大于 0")
	}

	g := &generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		byGen: make(map[int][]int),
	}
	g.surname = surnames[g.rng.Intn(len(surnames))]

	// 祖先链：最上一代先生成
	var parent string
	for gen := cfg.Up; gen >= 1; gen-- {
		id := g.add(gen, graph.GenderMale, titles[gen])
		if parent != "" {
			g.link(parent, id)
		}
		parent = id
	}

	root := g.add(0, graph.GenderMale, [2]string{"本", "本人"})
	g.persons[len(g.persons)-1].IsRoot = true
	if parent != "" {
		g.link(parent, root)
		for range cfg.Siblings {
			sib := g.add(0, graph.GenderMale, [2]string{"兄", "胞兄"})
			g.link(parent, sib)
		}
	}

	spouse := g.add(0, graph.GenderFemale, [2]string{"妻", "配偶"})
	g.link(root, spouse)

	g.descend(root, spouse, -1)
	g.layout()

	d := dataset.Default()
	d.Persons = g.persons
	d.Links = g.links
	d.Candidates = g.candidates()

	if _, err := d.Graph().Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// descend generates children below the couple until the requested depth
func (g *generator) descend(father, mother string, gen int) {
	if -gen > g.cfg.Down {
		return
	}
	n := 1 + g.rng.Intn(g.cfg.MaxChildren)
	for i := range n {
		gender := graph.GenderMale
		title := titles[gen]
		if g.rng.Intn(2) == 0 {
			gender = graph.GenderFemale
			title = femaleTitles[gen]
		}
		if i == 0 && gen == -1 {
			title[1] = "长" + title[0]
		}
		child := g.add(gen, gender, title)
		g.link(father, child)
		if mother != "" {
			g.link(mother, child)
		}
		if gender == graph.GenderMale {
			g.descend(child, "", gen-1)
		}
	}
}

func (g *generator) add(gen int, gender graph.Gender, title [2]string) string {
	g.nextID++
	id := strconv.Itoa(g.nextID)

	surname := g.surname
	given := givenMale
	if gender == graph.GenderFemale {
		given = givenFemale
		if title[1] == "配偶" {
			surname = surnames[g.rng.Intn(len(surnames))]
		}
	}
	year := 1985 - gen*25 + g.rng.Intn(6)

	p := graph.PersonNode{
		ID:            id,
		Name:          surname + given[g.rng.Intn(len(given))],
		IDCard:        fmt.Sprintf("370702%dxxxx", year),
		RelationChar:  title[0],
		RelationTitle: title[1],
		Gender:        gender,
	}
	if g.rng.Intn(3) == 0 {
		p.Address = g.address()
	}
	g.byGen[gen] = append(g.byGen[gen], len(g.persons))
	g.persons = append(g.persons, p)
	return id
}

func (g *generator) link(from, to string) {
	g.links = append(g.links, graph.Link{From: from, To: to})
}

// layout spreads each generation evenly across the canvas
func (g *generator) layout() {
	top, bottom := g.cfg.Up, -g.cfg.Down
	rows := top - bottom + 1
	for gen, idx := range g.byGen {
		y := 50.0
		if rows > 1 {
			y = 10 + float64(top-gen)*80/float64(rows-1)
		}
		for i, pi := range idx {
			g.persons[pi].X = float64(i+1) * 100 / float64(len(idx)+1)
			g.persons[pi].Y = y
		}
	}
}

func (g *generator) candidates() []graph.SearchResult {
	out := make([]graph.SearchResult, 0, g.cfg.NumCandidates)
	for i := range g.cfg.NumCandidates {
		out = append(out, graph.SearchResult{
			ID:      int64(i + 1),
			Name:    g.surname + givenMale[g.rng.Intn(len(givenMale))],
			IDCard:  fmt.Sprintf("370702%d%02d%02d%04d", 1960+g.rng.Intn(50), 1+g.rng.Intn(12), 1+g.rng.Intn(28), g.rng.Intn(10000)),
			Address: g.address(),
			Status:  statuses[g.rng.Intn(len(statuses))],
		})
	}
	return out
}

func (g *generator) address() string {
	return fmt.Sprintf("%s%s%d号",
		districts[g.rng.Intn(len(districts))],
		streets[g.rng.Intn(len(streets))],
		1+g.rng.Intn(200))
}

func writeDataset(path string, d *dataset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return dataset.Write(f, d)
}
