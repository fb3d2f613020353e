package dataset

import "github.com/zheng/rkhl/internal/graph"

var candidates = []graph.SearchResult{
	{ID: 1, Name: "张伟", IDCard: "370702198501011234", Address: "奎文区东风东街88号", Status: "正常"},
	{ID: 2, Name: "张伟", IDCard: "370781199005056789", Address: "青州市海岱路66号", Status: "重点关注"},
	{ID: 3, Name: "张小伟", IDCard: "370702200512123344", Address: "潍城区北宫西街11号", Status: "正常"},
}

var persons = []graph.PersonNode{
	{ID: "1", Name: "张建国", IDCard: "3707021930xxxx", RelationChar: "祖", RelationTitle: "祖父", X: 50, Y: 10, Gender: graph.GenderMale},
	{ID: "2", Name: "张强", IDCard: "3707021955xxxx", RelationChar: "父", RelationTitle: "父亲", X: 50, Y: 35, Gender: graph.GenderMale, Details: "已退休，居住于奎文区。"},
	{ID: "3", Name: "王丽", IDCard: "3707021986xxxx", RelationChar: "妻", RelationTitle: "配偶", X: 25, Y: 60, Gender: graph.GenderFemale, Details: "某中学教师。"},
	{ID: "4", Name: "张伟", IDCard: "370702198501011234", RelationChar: "本", RelationTitle: "本人", X: 50, Y: 60, IsRoot: true, Gender: graph.GenderMale, Address: "奎文区东风东街88号"},
	{ID: "5", Name: "张军", IDCard: "3707021982xxxx", RelationChar: "兄", RelationTitle: "胞兄", X: 75, Y: 60, Gender: graph.GenderMale, Details: "某企业职工，无前科。"},
	{ID: "6", Name: "张小小", IDCard: "3707022010xxxx", RelationChar: "女", RelationTitle: "长女", X: 37.5, Y: 85, Gender: graph.GenderFemale},
	{ID: "7", Name: "张小军", IDCard: "3707022008xxxx", RelationChar: "侄", RelationTitle: "侄子", X: 75, Y: 85, Gender: graph.GenderMale},
}

var links = []graph.Link{
	{From: "1", To: "2"},
	{From: "2", To: "4"},
	{From: "2", To: "5"},
	{From: "4", To: "3"},
	{From: "3", To: "6"},
	{From: "4", To: "6"},
	{From: "5", To: "7"},
}
