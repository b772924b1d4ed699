package gen

import "github.com/hitoshi/ntalo/internal/model"

// storyCatalog は60本の固定カタログ。
// IDとアセットIDは静的挿絵のファイル名解決に使用される。
// 永続化のキーはIDではなくタイトルである点に注意。
var storyCatalog = []model.Story{
	{ID: "1", AssetID: 1, Title: "Anansi and the Moss-Covered Rock", Region: "Ghana – Akan", Summary: "Anansi uses a magic sleeping rock to trick the other animals, but Little Deer turns the tables on him."},
	{ID: "2", AssetID: 2, Title: "Why the Sun and Moon Live in the Sky", Region: "Nigeria – Efik/Ibibio", Summary: "Sun and Moon build a big house for their friend Water, but Water brings so many friends they have to move to the sky!"},
	{ID: "3", AssetID: 3, Title: "The Clever Jackal Gets Away", Region: "South Africa – San", Summary: "Jackal tricks the mighty Lion by pretending the sky is falling, proving that wits can beat strength."},
	{ID: "4", AssetID: 4, Title: "The Lion’s Whisker", Region: "Ethiopia", Summary: "A woman learns patience by slowly befriending a lion to get a whisker, teaching her how to bond with her family."},
	{ID: "5", AssetID: 5, Title: "The Hare and the Elephant", Region: "Kenya", Summary: "Hare tricks Elephant and Hippo into a tug-of-war with each other, making them think he is the strongest animal."},
	{ID: "6", AssetID: 6, Title: "The Magic Drum", Region: "Nigeria – Yoruba", Summary: "A magic drum provides food when played gently, but chaos when played with greed. A lesson on sharing."},
	{ID: "7", AssetID: 7, Title: "Why the Sky Is Far Away", Region: "Nigeria", Summary: "The sky used to be close enough to eat, but people wasted it. Now it stays far away to protect itself."},
	{ID: "8", AssetID: 8, Title: "The Tortoise and the Birds", Region: "Igbo – Nigeria", Summary: "Tortoise tricks the birds to get a feast in the sky, but they take back their feathers, leading to his cracked shell."},
	{ID: "9", AssetID: 9, Title: "The Girl Who Brought the Rain", Region: "Zulu – South Africa", Summary: "Brave Lindiwe climbs a sacred mountain to sing to the spirits and ends a terrible drought."},
	{ID: "10", AssetID: 10, Title: "Kalulu the Hare", Region: "Tanzania / Uganda", Summary: "Kalulu beats Leopard in a race by using a secret path, teaching that being clever is better than just being fast."},
	{ID: "11", AssetID: 11, Title: "The Boy Who Cried Wolf", Region: "Greece", Summary: "A shepherd boy tricks villagers by crying 'Wolf!' until they stop believing him when a real wolf appears."},
	{ID: "12", AssetID: 12, Title: "The Bremen Town Musicians", Region: "Germany", Summary: "Four aging animals run away to become musicians and end up scaring robbers out of a cozy cabin."},
	{ID: "13", AssetID: 13, Title: "Little Red Riding Hood", Region: "France", Summary: "A girl meets a tricky wolf on her way to Grandma's house and learns a valuable lesson about strangers."},
	{ID: "14", AssetID: 14, Title: "The Gingerbread Man", Region: "England", Summary: "A cookie runs away from everyone who wants to eat him, until he meets a clever fox at the river."},
	{ID: "15", AssetID: 15, Title: "The Snow Queen", Region: "Denmark", Summary: "Gerda travels through a frozen world to save her friend Kai from the Snow Queen's icy spell."},
	{ID: "16", AssetID: 16, Title: "The Twelve Dancing Princesses", Region: "Germany", Summary: "A soldier discovers where the king's daughters go every night to dance their shoes to pieces."},
	{ID: "17", AssetID: 17, Title: "The Princess and the Pea", Region: "Denmark", Summary: "A prince finds a real princess when she can feel a tiny pea hidden under twenty mattresses."},
	{ID: "18", AssetID: 18, Title: "The Fisherman and His Wife", Region: "Germany", Summary: "A magical fish grants wishes, but the wife's greed eventually causes them to lose everything."},
	{ID: "19", AssetID: 19, Title: "Jack and the Beanstalk", Region: "England", Summary: "Jack climbs a magic beanstalk to a giant's castle and returns with treasures to help his mother."},
	{ID: "20", AssetID: 20, Title: "The Selkie Bride", Region: "Scotland", Summary: "A fisherman marries a seal-woman, but her heart eventually calls her back to the sea."},
	{ID: "21", AssetID: 21, Title: "The Cowherd and the Weaver Girl", Region: "China", Summary: "A heavenly weaver and an earthly cowherd are separated by the Milky Way but meet once a year."},
	{ID: "22", AssetID: 22, Title: "The Monkey King: Journey to the West", Region: "China", Summary: "Sun Wukong, a powerful monkey, learns humility and protects a monk on a dangerous journey."},
	{ID: "23", AssetID: 23, Title: "Chang’e and the Moon Festival", Region: "China", Summary: "Hou Yi saves the world from ten suns, but his wife Chang'e floats to the moon after drinking an elixir."},
	{ID: "24", AssetID: 24, Title: "The Butterfly Lovers", Region: "China", Summary: "Zhu Yingtai and Liang Shanbo's tragic love ends with them transforming into butterflies."},
	{ID: "25", AssetID: 25, Title: "The Legend of Mulan", Region: "China", Summary: "Mulan disguises herself as a man to take her father's place in war, becoming a hero."},
	{ID: "26", AssetID: 26, Title: "The Painted Skin", Region: "China", Summary: "A scholar and a magical painter trap a jealous spirit inside a painting."},
	{ID: "27", AssetID: 27, Title: "The Old Man Who Moved the Mountain", Region: "China", Summary: "Yu Gong's determination to move mountains inspires the gods to help him finish the task."},
	{ID: "28", AssetID: 28, Title: "The Magic Paintbrush", Region: "China", Summary: "Ma Liang uses a magic brush to help the poor and outwit a greedy ruler."},
	{ID: "29", AssetID: 29, Title: "The Four Dragons", Region: "China", Summary: "Four dragons disobey the Emperor to bring rain to the people, transforming into China's great rivers."},
	{ID: "30", AssetID: 30, Title: "The Fox Spirit Who Helped a Scholar", Region: "China", Summary: "A kind fox spirit helps a scholar pass his exams and protects him from jealous rivals."},
	{ID: "31", AssetID: 31, Title: "The Monkey and the Crocodile", Region: "India", Summary: "A clever monkey outsmarts a crocodile who wants to eat his heart."},
	{ID: "32", AssetID: 32, Title: "The Elephant and the Sparrows", Region: "India", Summary: "Small animals work together to defeat a bully elephant who destroyed a sparrow's nest."},
	{ID: "33", AssetID: 33, Title: "Tenali Raman and the Thief", Region: "India", Summary: "Tenali Raman tricks thieves into watering his garden while they think they are stealing treasure."},
	{ID: "34", AssetID: 34, Title: "The Tiger, the Brahmin, and the Jackal", Region: "India", Summary: "A jackal tricks an ungrateful tiger back into a cage to save a kind Brahmin."},
	{ID: "35", AssetID: 35, Title: "Akbar and Birbal: The Mango Tree", Region: "India", Summary: "Birbal uses a mango seed to teach Emperor Akbar a lesson about patience and effort."},
	{ID: "36", AssetID: 36, Title: "The Honest Woodcutter", Region: "India", Summary: "A river goddess rewards a woodcutter for his honesty with golden and silver axes."},
	{ID: "37", AssetID: 37, Title: "The Four Friends and the Hunter", Region: "India", Summary: "A turtle, deer, crow, and mouse use their unique skills to save each other from a hunter."},
	{ID: "38", AssetID: 38, Title: "The Magic Pot", Region: "India", Summary: "A magic pot feeds a family but overflows when a curious girl forgets the magic word."},
	{ID: "39", AssetID: 39, Title: "The Story of Savitri and Satyavan", Region: "India", Summary: "Savitri uses her wit to trick the god of death into returning her husband's life."},
	{ID: "40", AssetID: 40, Title: "The Clever Princess", Region: "India", Summary: "A wise princess solves a dispute over a necklace by testing who truly cares for it."},
	{ID: "41", AssetID: 41, Title: "Momotaro: The Peach Boy", Region: "Japan", Summary: "A boy born from a peach teams up with animals to defeat ogres and save his village."},
	{ID: "42", AssetID: 42, Title: "The Green Frog Who Wouldn’t Listen", Region: "Korea", Summary: "A disobedient frog learns a hard lesson about listening to his mother too late."},
	{ID: "43", AssetID: 43, Title: "The Turtle and the Monkey", Region: "Philippines", Summary: "Turtle outsmarts greedy Monkey to get his fair share of bananas."},
	{ID: "44", AssetID: 44, Title: "The Legend of Malin Kundang", Region: "Indonesia", Summary: "A son who denies his poor mother after becoming rich is turned into stone."},
	{ID: "45", AssetID: 45, Title: "The Golden Goby", Region: "Vietnam", Summary: "A magic fish helps a poor fisherman find justice against a greedy landlord."},
	{ID: "46", AssetID: 46, Title: "The Mouse Deer and the Tiger", Region: "Malaysia", Summary: "Tiny Mouse Deer tricks Tiger into falling into a pond to escape being eaten."},
	{ID: "47", AssetID: 47, Title: "The Story of the Two Sisters", Region: "Cambodia", Summary: "A kind sister is rewarded by a magic tree, while her greedy sister gets a muddy surprise."},
	{ID: "48", AssetID: 48, Title: "The Four Harmonious Friends", Region: "Tibet / Mongolia", Summary: "Four animals learn that respecting elders and working together brings fruit to everyone."},
	{ID: "49", AssetID: 49, Title: "The Wise Little Hen", Region: "Thailand", Summary: "Hen plants rice alone while her friends play, teaching them that rewards require work."},
	{ID: "50", AssetID: 50, Title: "The Princess and the Demon Snake", Region: "Nepal", Summary: "A prince uses wisdom to defeat a demon snake and rescue his princess."},
	{ID: "51", AssetID: 51, Title: "The First Fire", Region: "Cherokee – USA", Summary: "Tiny Water Spider bravely brings fire to the animals after bigger birds fail."},
	{ID: "52", AssetID: 52, Title: "The Great Bear", Region: "Iroquois – Canada/US", Summary: "Hunters chasing a bear into the sky become the stars of the Big Dipper."},
	{ID: "53", AssetID: 53, Title: "The Story of the Hummingbird", Region: "Aztec – Mexico", Summary: "A fallen warrior becomes a hummingbird to continue watching over his people."},
	{ID: "54", AssetID: 54, Title: "La Llorona", Region: "Mexico", Summary: "A gentle retelling of the river spirit who warns children to stay safe near water."},
	{ID: "55", AssetID: 55, Title: "The Magic Snake", Region: "Maya – Guatemala", Summary: "A farmer helps a snake and is rewarded with wisdom to survive a drought."},
	{ID: "56", AssetID: 56, Title: "The Rainbow Crow", Region: "Lenape – N. America", Summary: "Crow sacrifices his colorful feathers to bring fire to his freezing friends."},
	{ID: "57", AssetID: 57, Title: "How the Jaguar Lost His Voice", Region: "Brazil – Tupi", Summary: "Jaguar loses his loud roar after bullying others and learns to be a quiet hunter."},
	{ID: "58", AssetID: 58, Title: "The Condor and the Shepherd Girl", Region: "Andes – Peru/Bolivia", Summary: "A girl visits the sky kingdom but returns to earth, keeping a feather as a memory."},
	{ID: "59", AssetID: 59, Title: "The Sun and the Moon", Region: "Inuit – Arctic", Summary: "A brother and sister become the Sun and Moon to light the dark Arctic nights."},
	{ID: "60", AssetID: 60, Title: "The Magic Lake", Region: "Andean – Ecuador", Summary: "A boy and a magic lake spirit save a village from drought by promising to protect nature."},
}

// Catalog はカタログ全件のコピーを返す。
func Catalog() []model.Story {
	out := make([]model.Story, len(storyCatalog))
	copy(out, storyCatalog)
	return out
}

// FindStoryByTitle はタイトル完全一致でカタログを検索する。
// 見つからない場合はfalseを返す。
func FindStoryByTitle(title string) (model.Story, bool) {
	for _, s := range storyCatalog {
		if s.Title == title {
			return s, true
		}
	}
	return model.Story{}, false
}
