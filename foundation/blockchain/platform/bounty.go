package platform

import (
	"fmt"
	"sort"
	"time"

	"github.com/ponpase/snax/foundation/blockchain/asset"
	"github.com/ponpase/snax/foundation/blockchain/auth"
	"github.com/ponpase/snax/foundation/blockchain/ledger"
	"github.com/ponpase/snax/foundation/blockchain/signature"
)

// AddArticle enrolls an article of a user in the bounty program. Each
// author may have a single article.
func (p *Platform) AddArticle(signers auth.Authority, author uint64, permalink string, title string, created time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	if _, exists := p.users[author]; !exists {
		return fmt.Errorf("%w: author %d", ErrUserNotFound, author)
	}

	if permalink == "" {
		return fmt.Errorf("%w: permalink required", ErrInvalidArgument)
	}

	key := signature.HashString(permalink)
	if _, exists := p.permalinks[key]; exists {
		return fmt.Errorf("%w: %s", ErrArticleExists, permalink)
	}

	if _, exists := p.authors[author]; exists {
		return fmt.Errorf("%w: author %d already has an article", ErrArticleExists, author)
	}

	symbol := p.state.RoundSupply.Symbol

	article := Article{
		Seq:       p.nextArticle,
		Author:    author,
		Permalink: permalink,
		Title:     title,
		Created:   created,
		Paid:      asset.Zero(symbol),
	}

	p.articles[article.Seq] = article
	p.permalinks[key] = article.Seq
	p.authors[author] = article.Seq
	p.nextArticle++

	if p.bounty == nil {
		p.bounty = &Bounty{TotalPaid: asset.Zero(symbol)}
	}
	p.bounty.LastUpdate = p.cfg.Now()

	p.ev("platform: %s: addarticle: seq[%d] author[%d] permalink[%s]", p.cfg.Account, article.Seq, author, permalink)

	return nil
}

// RemoveArticle removes an article from the bounty program.
func (p *Platform) RemoveArticle(signers auth.Authority, permalink string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.requireOperator(signers); err != nil {
		return err
	}

	key := signature.HashString(permalink)

	seq, exists := p.permalinks[key]
	if !exists {
		return fmt.Errorf("%w: %s", ErrArticleNotFound, permalink)
	}

	article := p.articles[seq]

	delete(p.articles, seq)
	delete(p.permalinks, key)
	delete(p.authors, article.Author)

	p.ev("platform: %s: rmarticle: seq[%d] permalink[%s]", p.cfg.Account, seq, permalink)

	return nil
}

// PayBounty pays the author of the article through a social transfer and
// adds the amount to the bounty totals.
func (p *Platform) PayBounty(signers auth.Authority, payer ledger.AccountName, permalink string, quantity asset.Asset) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := signers.Require(payer); err != nil {
		return err
	}

	if err := p.requireInitialized(); err != nil {
		return err
	}

	seq, exists := p.permalinks[signature.HashString(permalink)]
	if !exists {
		return fmt.Errorf("%w: %s", ErrArticleNotFound, permalink)
	}

	article := p.articles[seq]

	paid, err := article.Paid.Add(quantity)
	if err != nil {
		return err
	}

	total, err := p.bounty.TotalPaid.Add(quantity)
	if err != nil {
		return err
	}

	if err := p.transfer(payer, article.Author, quantity, "bounty program"); err != nil {
		return err
	}

	article.Paid = paid
	p.articles[seq] = article
	p.bounty.TotalPaid = total

	p.ev("platform: %s: paybounty: payer[%s] seq[%d] qty[%s] total[%s]", p.cfg.Account, payer, seq, quantity, total)

	return nil
}

// Articles returns the articles enrolled in the bounty program ordered by
// sequence.
func (p *Platform) Articles() []Article {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Article, 0, len(p.articles))
	for _, article := range p.articles {
		out = append(out, article)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })

	return out
}

// Bounty returns the totals of the bounty program.
func (p *Platform) Bounty() (Bounty, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.bounty == nil {
		return Bounty{}, false
	}
	return *p.bounty, true
}
